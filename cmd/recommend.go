package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/recommend"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

type recommendFlags struct {
	k      int
	scores bool
	json   bool
}

var flagRecommend recommendFlags

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>",
	Short: "Show talks similar to the given title",
	Long: `Print the top-K talks most similar to <title>, best match first.

The title must match the catalog exactly (case-sensitive). Use 'talkrec list --filter'
to find the exact spelling. Words are joined with spaces, so quoting is optional.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&flagRecommend.k, "k", "k", 0, "Number of results (default: default_k from config)")
	recommendCmd.Flags().BoolVar(&flagRecommend.scores, "scores", false, "Show similarity scores")
	recommendCmd.Flags().BoolVar(&flagRecommend.json, "json", false, "Print results as JSON")
	rootCmd.AddCommand(recommendCmd)
}

type recommendationOut struct {
	Rank int `json:"rank"`
	artifact.Talk
	Score float64 `json:"score"`
}

func runRecommend(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")
	k := appCfg.DefaultK
	if cmd.Flags().Changed("k") {
		k = flagRecommend.k
	}

	rec, err := loadRecommender()
	if err != nil {
		return err
	}

	results, err := rec.Recommend(title, k)
	if err != nil {
		var nf *recommend.NotFoundError
		if errors.As(err, &nf) {
			return notFoundWithHints(rec, title, err)
		}
		return err
	}

	if flagRecommend.json {
		out := make([]recommendationOut, len(results))
		for i, r := range results {
			out[i] = recommendationOut{Rank: r.Rank, Talk: r.Talk, Score: r.Score}
		}
		return printJSON(out)
	}
	printRecommendations(title, results, flagRecommend.scores)
	return nil
}

// notFoundWithHints appends up to three catalog titles that contain the query words.
func notFoundWithHints(rec *recommend.Recommender, title string, err error) error {
	hints := recommend.FilterTalks(rec.Talks(), title, 3)
	if len(hints) == 0 {
		return err
	}
	var b strings.Builder
	b.WriteString(err.Error())
	b.WriteString("\nDid you mean:")
	for _, h := range hints {
		fmt.Fprintf(&b, "\n  %q", h.Title)
	}
	return errors.New(b.String())
}

func printRecommendations(title string, results []recommend.Recommendation, scores bool) {
	fmt.Fprintf(stdout, "\nBecause you liked %q\n\n", title)
	fmt.Fprintf(stdout, "Recommendations (%d):\n", len(results))
	if len(results) == 0 {
		printMiss("", "the catalog has no other talks")
		return
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, r := range results {
		score := ""
		if scores {
			score = fmt.Sprintf("[%.3f]", r.Score)
		}
		fmt.Fprintf(w, "  %d.\t%s\t%s\n", r.Rank, score, r.Talk.Title)
		detail := r.Talk.MainSpeaker
		if r.Talk.URL != "" {
			detail += "  " + r.Talk.URL
		}
		if detail != "" {
			fmt.Fprintf(w, "  \t\t%s\n", detail)
		}
	}
	_ = w.Flush()
}
