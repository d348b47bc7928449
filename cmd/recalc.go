package cmd

import (
	"fmt"

	"tally/internal/cli"

	"github.com/spf13/cobra"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc <account>",
	Short: "Rebuild an account's running balances",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecalc,
}

func init() {
	rootCmd.AddCommand(recalcCmd)
}

func runRecalc(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	acct, err := resolveAccount(s, args[0])
	if err != nil {
		return err
	}

	if err := e.Recalculate(acct.ID); err != nil {
		return err
	}

	items, err := s.AccountLineItems(acct.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		status("Account %q has no line items.", acct.PathName)
		return nil
	}

	last := items[len(items)-1]
	fmt.Printf("\n  %s: %d line items, balance %s\n",
		acct.PathName, len(items), cli.FormatAmount(last.RunningBalance))
	return nil
}
