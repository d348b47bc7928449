package cmd

import (
	"fmt"
	"regexp"

	"tally/internal/cli"
	"tally/internal/model"
	"tally/internal/store"

	"github.com/spf13/cobra"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage import rules used by category suggestions",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add <pattern> <category>",
	Short: "Link a payee pattern to a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runRuleAdd,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import rules",
	RunE:  runRuleList,
}

func init() {
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleListCmd)
	rootCmd.AddCommand(ruleCmd)
}

func runRuleAdd(_ *cobra.Command, args []string) error {
	e, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := e.CheckWrite(); err != nil {
		return err
	}
	if _, err := regexp.Compile(args[0]); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", args[0], err)
	}
	cat, err := resolveAccount(s, args[1])
	if err != nil {
		return err
	}
	if !cat.Kind.IsCategory() {
		return fmt.Errorf("%q is not a category", cat.Name)
	}

	err = s.RunWrite(func(tx *store.WriteTx) error {
		tpl := &model.Template{Name: args[0]}
		if err := tx.InsertTemplate(tpl); err != nil {
			return err
		}
		tli := &model.TemplateLineItem{TemplateID: tpl.ID, AccountID: &cat.ID}
		if err := tx.InsertTemplateLineItem(tli); err != nil {
			return err
		}
		return tx.InsertImportRule(&model.ImportRule{Pattern: args[0], TemplateID: tpl.ID})
	})
	if err != nil {
		return err
	}

	status("Rule %q now suggests %s", args[0], cat.PathName)
	return nil
}

func runRuleList(_ *cobra.Command, _ []string) error {
	_, s, _, err := openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	rules, err := s.ImportRules()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Println("\n  No import rules. Add one with `tally rule add`.")
		return nil
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		categories := ""
		legs, err := s.TemplateLineItems(r.TemplateID)
		if err != nil {
			return err
		}
		for _, leg := range legs {
			if leg.AccountID == nil {
				continue
			}
			acct, err := s.Account(*leg.AccountID)
			if err != nil {
				return err
			}
			if acct == nil || !acct.Kind.IsCategory() {
				continue
			}
			if categories != "" {
				categories += ", "
			}
			categories += acct.PathName
		}
		rows = append(rows, []string{fmt.Sprintf("%d", r.ID), r.Pattern, categories})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "IMPORT RULES",
		Headers: []string{"ID", "Pattern", "Categories"},
		Rows:    rows,
	}))
	return nil
}
