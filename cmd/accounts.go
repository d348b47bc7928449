package cmd

import (
	"fmt"

	"tally/internal/cli"
	"tally/internal/model"
	"tally/internal/store"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List accounts",
	RunE:  runAccounts,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an account or category",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsAdd,
}

var (
	flagAccountKind   string
	flagAccountParent string
)

func init() {
	accountsAddCmd.Flags().StringVarP(&flagAccountKind, "kind", "k", "checking",
		"Account kind: checking, savings, credit, investment, cash, income, expense")
	accountsAddCmd.Flags().StringVar(&flagAccountParent, "parent", "", "Parent category (categories only)")
	accountsCmd.AddCommand(accountsAddCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(_ *cobra.Command, _ []string) error {
	_, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	accounts, err := s.Accounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("\n  No accounts yet. Create one with `tally accounts add`.")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.ID),
			a.PathName,
			string(a.Kind),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "ACCOUNTS",
		Headers: []string{"ID", "Account", "Kind"},
		Rows:    rows,
	}))
	return nil
}

func runAccountsAdd(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := e.CheckWrite(); err != nil {
		return err
	}

	kind := model.AccountKind(flagAccountKind)
	if !kind.Valid() {
		return fmt.Errorf("unknown account kind %q", flagAccountKind)
	}

	acct := model.Account{
		Name:     args[0],
		PathName: args[0],
		Kind:     kind,
	}
	if flagAccountParent != "" {
		if !kind.IsCategory() {
			return fmt.Errorf("only categories can have a parent")
		}
		parent, err := resolveAccount(s, flagAccountParent)
		if err != nil {
			return err
		}
		if !parent.Kind.IsCategory() {
			return fmt.Errorf("parent %q is not a category", parent.Name)
		}
		acct.ParentID = &parent.ID
		acct.PathName = parent.PathName + ":" + acct.Name
	}

	err = s.RunWrite(func(tx *store.WriteTx) error {
		return tx.InsertAccount(&acct)
	})
	if err != nil {
		return err
	}

	status("Created %s account %q (id %d)", acct.Kind, acct.PathName, acct.ID)
	return nil
}
