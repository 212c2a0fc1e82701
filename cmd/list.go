package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/kamusis/talkrec/internal/recommend"
)

type listFlags struct {
	filter string
	sort   bool
	limit  int
	json   bool
}

var flagList listFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the talks that can be used as a recommendation seed",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&flagList.filter, "filter", "", "Only show talks whose title or speaker contains every word")
	listCmd.Flags().BoolVar(&flagList.sort, "sort", false, "Sort alphabetically instead of catalog order")
	listCmd.Flags().IntVar(&flagList.limit, "limit", 0, "Show at most n talks (0 = all)")
	listCmd.Flags().BoolVar(&flagList.json, "json", false, "Print talks as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	if flagList.limit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", flagList.limit)
	}
	rec, err := loadRecommender()
	if err != nil {
		return err
	}

	talks := rec.Talks()
	if flagList.sort {
		recommend.SortTalks(talks, language.English)
	}
	talks = recommend.FilterTalks(talks, flagList.filter, flagList.limit)

	if flagList.json {
		if talks == nil {
			return printJSON([]any{})
		}
		return printJSON(talks)
	}

	if len(talks) == 0 {
		printMiss("", "no talks match")
		return nil
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, t := range talks {
		fmt.Fprintf(w, "%s\t%s\n", t.Title, t.MainSpeaker)
	}
	_ = w.Flush()
	fmt.Fprintf(stdout, "\n%d of %d talks\n", len(talks), rec.Len())
	return nil
}
