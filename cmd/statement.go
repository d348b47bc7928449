package cmd

import (
	"fmt"
	"strconv"

	"tally/internal/cli"
	"tally/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var statementCmd = &cobra.Command{
	Use:     "statement",
	Aliases: []string{"stmt"},
	Short:   "Create, reconcile, and audit account statements",
}

var statementCreateCmd = &cobra.Command{
	Use:   "create <account>",
	Short: "Create a statement period for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatementCreate,
}

var statementListCmd = &cobra.Command{
	Use:   "list <account>",
	Short: "List an account's statements with reconciliation status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatementList,
}

var statementReconcileCmd = &cobra.Command{
	Use:   "reconcile <statement-id> <line-item-id>...",
	Short: "Reconcile line items against a statement",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStatementReconcile,
}

var statementUnreconcileCmd = &cobra.Command{
	Use:   "unreconcile <statement-id> <line-item-id>...",
	Short: "Release line items from a statement",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStatementUnreconcile,
}

var statementDeleteCmd = &cobra.Command{
	Use:   "delete <statement-id>",
	Short: "Delete a statement, releasing its line items",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatementDelete,
}

var (
	flagStmtStart     string
	flagStmtEnd       string
	flagStmtBeginning string
	flagStmtEnding    string
)

func init() {
	statementCreateCmd.Flags().StringVar(&flagStmtStart, "start", "", "Period start (YYYY-MM-DD)")
	statementCreateCmd.Flags().StringVar(&flagStmtEnd, "end", "", "Period end (YYYY-MM-DD)")
	statementCreateCmd.Flags().StringVar(&flagStmtBeginning, "beginning", "", "Beginning balance")
	statementCreateCmd.Flags().StringVar(&flagStmtEnding, "ending", "", "Ending balance")
	_ = statementCreateCmd.MarkFlagRequired("start")
	_ = statementCreateCmd.MarkFlagRequired("end")
	_ = statementCreateCmd.MarkFlagRequired("beginning")
	_ = statementCreateCmd.MarkFlagRequired("ending")

	statementCmd.AddCommand(statementCreateCmd)
	statementCmd.AddCommand(statementListCmd)
	statementCmd.AddCommand(statementReconcileCmd)
	statementCmd.AddCommand(statementUnreconcileCmd)
	statementCmd.AddCommand(statementDeleteCmd)
	rootCmd.AddCommand(statementCmd)
}

func runStatementCreate(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	acct, err := resolveAccount(s, args[0])
	if err != nil {
		return err
	}
	start, err := cli.ParseDate(flagStmtStart)
	if err != nil {
		return err
	}
	end, err := cli.ParseDate(flagStmtEnd)
	if err != nil {
		return err
	}
	beginning, err := decimal.NewFromString(flagStmtBeginning)
	if err != nil {
		return fmt.Errorf("invalid beginning balance %q", flagStmtBeginning)
	}
	ending, err := decimal.NewFromString(flagStmtEnding)
	if err != nil {
		return fmt.Errorf("invalid ending balance %q", flagStmtEnding)
	}

	st, err := e.CreateStatement(engine.StatementParams{
		AccountID:        acct.ID,
		Start:            start,
		End:              end,
		BeginningBalance: beginning,
		EndingBalance:    ending,
	})
	if err != nil {
		return err
	}

	status("Created statement %d for %s (%s to %s)",
		st.ID, acct.PathName, cli.FormatDate(st.Start), cli.FormatDate(st.End))
	return nil
}

func runStatementList(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	acct, err := resolveAccount(s, args[0])
	if err != nil {
		return err
	}
	stmts, err := s.AccountStatements(acct.ID)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		fmt.Printf("\n  No statements for %s.\n", acct.PathName)
		return nil
	}

	rows := make([][]string, 0, len(stmts))
	for _, st := range stmts {
		stStatus, err := e.StatementStatus(st)
		if err != nil {
			return err
		}

		state := stStatus.State()
		switch state {
		case "balanced":
			state = cli.Positive(state)
		case "partial":
			state = cli.Warn(state)
		default:
			state = cli.Muted(state)
		}

		diff := cli.FormatAmount(stStatus.Difference)
		if !stStatus.Balanced {
			diff = cli.Negative(diff)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", st.ID),
			cli.FormatDate(st.Start) + " – " + cli.FormatDate(st.End),
			cli.FormatAmount(st.BeginningBalance),
			cli.FormatAmount(st.EndingBalance),
			cli.FormatAmount(stStatus.ReconciledBalance),
			diff,
			state,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "STATEMENTS  " + acct.PathName,
		Headers: []string{"ID", "Period", "Beginning", "Ending", "Reconciled", "Diff", "State"},
		Rows:    rows,
	}))
	return nil
}

func runStatementReconcile(_ *cobra.Command, args []string) error {
	return reconcileOp(args, true)
}

func runStatementUnreconcile(_ *cobra.Command, args []string) error {
	return reconcileOp(args, false)
}

func reconcileOp(args []string, assign bool) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	stmtID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid statement id %q", args[0])
	}
	ids := make([]int64, 0, len(args)-1)
	for _, a := range args[1:] {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid line item id %q", a)
		}
		ids = append(ids, id)
	}

	if assign {
		if err := e.ReconcileLineItems(stmtID, ids); err != nil {
			return err
		}
		status("Reconciled %d line items against statement %d", len(ids), stmtID)
	} else {
		if err := e.UnreconcileLineItems(stmtID, ids); err != nil {
			return err
		}
		status("Released %d line items from statement %d", len(ids), stmtID)
	}
	return nil
}

func runStatementDelete(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	stmtID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid statement id %q", args[0])
	}

	deleted, err := e.DeleteStatement(stmtID)
	if err != nil {
		return err
	}
	if !deleted {
		status("Statement %d does not exist.", stmtID)
		return nil
	}
	status("Deleted statement %d.", stmtID)
	return nil
}
