package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-lending/config"
	"library-lending/library"
	"library-lending/logging"
)

type rootOptions struct {
	configPath string
	today      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "library",
		Short:         "Library members, catalog and loans",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			s := newSession(bufio.NewScanner(cmd.InOrStdin()), cmd.OutOrStdout(), mgr, interactive)
			s.run()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.today, "today", "", "pin the session date (YYYY-MM-DD)")

	root.AddCommand(&cobra.Command{
		Use:   "members",
		Short: "Print the saved members",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openLoadedManager(opts)
			if err != nil {
				return err
			}
			defer mgr.Close()
			printMembers(cmd.OutOrStdout(), mgr)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "items",
		Short: "Print the saved catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openLoadedManager(opts)
			if err != nil {
				return err
			}
			defer mgr.Close()
			printItems(cmd.OutOrStdout(), mgr)
			return nil
		},
	})

	return root
}

func openManager(opts *rootOptions) (*library.LibraryManager, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, os.Stderr)

	store, err := library.OpenStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	mgrOpts := []library.Option{library.WithLogger(logger)}
	if opts.today != "" {
		day, err := library.ParseDate(strings.TrimSpace(opts.today))
		if err != nil {
			store.Close()
			return nil, err
		}
		mgrOpts = append(mgrOpts, library.WithClock(library.FixedClock(day)))
	}
	return library.NewLibraryManager(store, mgrOpts...), nil
}

func openLoadedManager(opts *rootOptions) (*library.LibraryManager, error) {
	mgr, err := openManager(opts)
	if err != nil {
		return nil, err
	}
	if report := mgr.LoadData(); report.NothingLoaded {
		slog.Info("nothing loaded", "reason", report.Reason)
	}
	return mgr, nil
}
