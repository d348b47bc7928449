// Package cmd implements the tally CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tally/internal/config"
	"tally/internal/engine"
	"tally/internal/guard"
	"tally/internal/model"
	"tally/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagBook  string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Personal ledger CLI",
	Long:  "Manage a personal ledger book: accounts, transactions, statements, and categories.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load() // optional .env, e.g. TALLY_BOOK

	rootCmd.PersistentFlags().StringVarP(&flagBook, "book", "b", "", "Book database path")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress status output")
}

// bookPath resolves the book location: flag, env, config, default.
func bookPath(cfg config.Config) string {
	if flagBook != "" {
		return flagBook
	}
	if env := os.Getenv("TALLY_BOOK"); env != "" {
		return env
	}
	if cfg.General.Book != "" {
		return cfg.General.Book
	}
	return config.DefaultBookPath()
}

// openEngine opens the book and builds the engine with its write guard.
// The caller closes the returned store.
func openEngine() (*engine.Engine, *store.Store, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, cfg, err
	}

	path := bookPath(cfg)
	s, err := store.Open(path)
	if err != nil {
		return nil, nil, cfg, err
	}

	g := guard.New(path, time.Duration(cfg.Guard.TTLMillis)*time.Millisecond)
	e := engine.New(s, g, engine.Options{SuggestionSampleLimit: cfg.Suggest.SampleLimit})
	return e, s, cfg, nil
}

// resolveAccount accepts an account key or a name/path and returns the account.
func resolveAccount(s *store.Store, arg string) (*model.Account, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		acct, err := s.Account(id)
		if err != nil {
			return nil, err
		}
		if acct != nil {
			return acct, nil
		}
	}
	acct, err := s.AccountByName(arg)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("no account %q", arg)
	}
	return acct, nil
}

func status(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
