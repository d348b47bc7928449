package cmd

import (
	"fmt"

	"tally/internal/cli"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <merchant>",
	Short: "Suggest categories for a merchant from rules and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	suggestions, err := e.SuggestCategory(args[0])
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Printf("\n  No suggestions for %q.\n", args[0])
		return nil
	}

	rows := make([][]string, 0, len(suggestions))
	for _, sg := range suggestions {
		rows = append(rows, []string{
			sg.CategoryPath,
			cli.FormatPercent(sg.Confidence),
			sg.Reason,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("SUGGESTIONS  %s", args[0]),
		Headers: []string{"Category", "Confidence", "Reason"},
		Rows:    rows,
	}))
	return nil
}
