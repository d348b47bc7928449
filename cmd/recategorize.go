package cmd

import (
	"fmt"
	"strconv"

	"tally/internal/cli"
	"tally/internal/engine"

	"github.com/spf13/cobra"
)

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize <transaction-id> <category>",
	Short: "Move a transaction to a different category",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecategorize,
}

var bulkRecategorizeCmd = &cobra.Command{
	Use:   "bulk-recategorize <payee-pattern> <category>",
	Short: "Recategorize every transaction whose title contains a pattern",
	Args:  cobra.ExactArgs(2),
	RunE:  runBulkRecategorize,
}

var (
	flagBulkDryRun        bool
	flagBulkUncategorized bool
)

func init() {
	bulkRecategorizeCmd.Flags().BoolVar(&flagBulkDryRun, "dry-run", false, "Show what would change without writing")
	bulkRecategorizeCmd.Flags().BoolVar(&flagBulkUncategorized, "uncategorized-only", false,
		"Only touch transactions that have no category yet")
	rootCmd.AddCommand(recategorizeCmd)
	rootCmd.AddCommand(bulkRecategorizeCmd)
}

func runRecategorize(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	txnID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", args[0])
	}
	cat, err := resolveAccount(s, args[1])
	if err != nil {
		return err
	}

	res, err := e.Recategorize(txnID, cat.ID)
	if err != nil {
		return err
	}

	if res.OldCategory != "" {
		status("Moved %q from %s to %s", res.Title, res.OldCategory, res.NewCategory)
	} else {
		status("Categorized %q as %s", res.Title, res.NewCategory)
	}
	return nil
}

func runBulkRecategorize(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	cat, err := resolveAccount(s, args[1])
	if err != nil {
		return err
	}

	result, err := e.BulkRecategorize(args[0], cat.ID, engine.BulkOptions{
		DryRun:            flagBulkDryRun,
		UncategorizedOnly: flagBulkUncategorized,
	})
	if err != nil {
		return err
	}
	if len(result.Affected) == 0 {
		fmt.Printf("\n  No transactions match %q.\n", args[0])
		return nil
	}

	rows := make([][]string, 0, len(result.Affected))
	for _, r := range result.Affected {
		old := r.OldCategory
		if old == "" {
			old = cli.Muted("uncategorized")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.TransactionID),
			r.Title,
			old,
			r.NewCategory,
		})
	}

	title := fmt.Sprintf("RECATEGORIZED %d", result.Count)
	if flagBulkDryRun {
		title = fmt.Sprintf("DRY RUN: would recategorize %d", len(result.Affected))
	}
	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"ID", "Title", "From", "To"},
		Rows:    rows,
	}))
	return nil
}
