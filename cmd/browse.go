package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/ui/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Pick a talk interactively and see what is similar",
	Long: `Open a terminal UI listing every talk. Type / to filter, enter to recommend,
+ and - to change how many results are shown, esc to go back and q to quit.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	rec, err := loadRecommender()
	if err != nil {
		return err
	}
	m := tui.NewModel(rec, tui.Options{
		DefaultK: appCfg.DefaultK,
		MinK:     appCfg.UI.MinK,
		MaxK:     appCfg.UI.MaxK,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
