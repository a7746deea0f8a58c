package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/observability"
	"github.com/jonathan/deepdive/internal/research"
	"github.com/jonathan/deepdive/internal/sources/homepage"
	"github.com/jonathan/deepdive/internal/sources/resolver"
	"github.com/jonathan/deepdive/internal/sources/search"
	"github.com/jonathan/deepdive/internal/sources/techstack"
	"github.com/jonathan/deepdive/internal/synth"
	"github.com/jonathan/deepdive/internal/types"
)

var (
	verbose    bool
	useBrowser bool
)

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and a per-source summary")
	rootCmd.Flags().BoolVar(&useBrowser, "use-browser", false, "Render the homepage in a headless browser before scraping")
}

func runResearch(cmd *cobra.Command, args []string) error {
	company := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(verbose)
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Ctrl-C cancels in-flight research and exits without a report.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		fmt.Println("\nResearch interrupted by user")
		os.Exit(1)
	}()

	var homepageOpts []homepage.Option
	if useBrowser {
		homepageOpts = append(homepageOpts, homepage.WithBrowser())
	}

	agg := research.New(
		resolver.New(ctx, cfg, log.Named("resolver")),
		techstack.New(cfg, log.Named("techstack")),
		search.New(cfg, log.Named("search")),
		homepage.New(cfg, log.Named("homepage"), homepageOpts...),
		func(message string) { fmt.Println(message) },
		log.Named("research"),
	)

	record, err := agg.Run(ctx, types.CompanyQuery{Name: company})
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	if verbose {
		printer.PrintRecordSummary(record)
	}

	insight := synth.New(cfg, log.Named("synth")).Generate(ctx, record)
	printer.PrintReport(company, insight)
	return nil
}
