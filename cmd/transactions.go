package cmd

import (
	"fmt"

	"tally/internal/cli"
	"tally/internal/model"
	"tally/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions [search]",
	Aliases: []string{"txns"},
	Short:   "List transactions, optionally filtered by title",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runTransactions,
}

var transactionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	RunE:  runTransactionsAdd,
}

var (
	flagTxnLimit    int
	flagTxnDate     string
	flagTxnTitle    string
	flagTxnAmount   string
	flagTxnAccount  string
	flagTxnCategory string
)

func init() {
	transactionsCmd.Flags().IntVarP(&flagTxnLimit, "limit", "l", 25, "Number of transactions to show")

	transactionsAddCmd.Flags().StringVar(&flagTxnDate, "date", "", "Transaction date (YYYY-MM-DD)")
	transactionsAddCmd.Flags().StringVar(&flagTxnTitle, "title", "", "Payee or title")
	transactionsAddCmd.Flags().StringVar(&flagTxnAmount, "amount", "", "Amount spent or received")
	transactionsAddCmd.Flags().StringVar(&flagTxnAccount, "account", "", "Real account the money moved through")
	transactionsAddCmd.Flags().StringVar(&flagTxnCategory, "category", "", "Category account (optional)")
	_ = transactionsAddCmd.MarkFlagRequired("date")
	_ = transactionsAddCmd.MarkFlagRequired("title")
	_ = transactionsAddCmd.MarkFlagRequired("amount")
	_ = transactionsAddCmd.MarkFlagRequired("account")

	transactionsCmd.AddCommand(transactionsAddCmd)
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(_ *cobra.Command, args []string) error {
	_, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	search := ""
	if len(args) == 1 {
		search = args[0]
	}
	txns, err := s.SearchTransactions(search, flagTxnLimit)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		category := cli.Muted("uncategorized")
		amount := ""
		items, err := s.LineItems(t.ID)
		if err != nil {
			return err
		}
		for _, li := range items {
			if li.AccountID == nil {
				continue
			}
			acct, err := s.Account(*li.AccountID)
			if err != nil {
				return err
			}
			if acct == nil {
				continue
			}
			if acct.Kind.IsCategory() {
				category = acct.PathName
			} else if amount == "" {
				amount = cli.FormatAmount(li.Amount)
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			cli.FormatDate(t.Date),
			t.Title,
			amount,
			category,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "TRANSACTIONS",
		Headers: []string{"ID", "Date", "Title", "Amount", "Category"},
		Rows:    rows,
	}))
	return nil
}

func runTransactionsAdd(_ *cobra.Command, _ []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := e.CheckWrite(); err != nil {
		return err
	}

	date, err := cli.ParseDate(flagTxnDate)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(flagTxnAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q", flagTxnAmount)
	}
	acct, err := resolveAccount(s, flagTxnAccount)
	if err != nil {
		return err
	}

	var txnID int64
	if flagTxnCategory != "" {
		cat, err := resolveAccount(s, flagTxnCategory)
		if err != nil {
			return err
		}
		if !cat.Kind.IsCategory() {
			return fmt.Errorf("%q is not a category", cat.Name)
		}
		legs := []store.Leg{
			{AccountID: &acct.ID, Amount: amount.Neg()},
			{AccountID: &cat.ID, Amount: amount},
		}
		err = s.RunWrite(func(tx *store.WriteTx) error {
			txn, err := tx.CreateTransaction(date, flagTxnTitle, legs)
			if err != nil {
				return err
			}
			txnID = txn.ID
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		// uncategorized: a single leg until `tally recategorize` adds the
		// balancing category leg
		err = s.RunWrite(func(tx *store.WriteTx) error {
			txn := &model.Transaction{Date: date, Title: flagTxnTitle}
			if err := tx.InsertTransaction(txn); err != nil {
				return err
			}
			txnID = txn.ID
			return tx.InsertLineItem(&model.LineItem{
				TransactionID: txn.ID,
				AccountID:     &acct.ID,
				Amount:        amount.Neg(),
			})
		})
		if err != nil {
			return err
		}
	}

	if err := e.Recalculate(acct.ID); err != nil {
		return err
	}

	status("Recorded transaction %d: %s %s", txnID, flagTxnTitle, cli.FormatAmount(amount))
	return nil
}
