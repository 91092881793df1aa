package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/veranemoloko/novel-downloader/internal/config"
	"github.com/veranemoloko/novel-downloader/internal/domain"
	svc "github.com/veranemoloko/novel-downloader/internal/service"
	"github.com/veranemoloko/novel-downloader/internal/source/biqu"
	"github.com/veranemoloko/novel-downloader/internal/storage"
	"github.com/veranemoloko/novel-downloader/internal/worker"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Search and download novels from the command line",
	Long: `console searches the configured novel site and downloads a whole novel
into a single text file, one chapter after another in reading order.

Run without a subcommand for the interactive menu.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return runMenu(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file with ND_* settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(searchCmd, downloadCmd)
}

// app bundles what the console commands need.
type app struct {
	searcher svc.Searcher
	orch     *svc.Orchestrator
	logger   *slog.Logger
}

func newApp() (*app, error) {
	cfg, err := cfgpkg.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfgpkg.SetupLoggerTo(cfg, os.Stderr)

	client, err := biqu.NewClient(cfg.BaseURL, cfg.FetchTimeout, logger)
	if err != nil {
		return nil, err
	}
	parser, err := biqu.NewParser(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	orch := svc.NewOrchestrator(client, parser, storage.NewFileStorage(cfg.DownloadDir), svc.Options{
		MaxWorkers:     cfg.MaxWorkers,
		Retry:          worker.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		FetchTimeout:   cfg.FetchTimeout,
		ProgressOutput: os.Stderr,
	}, logger)

	return &app{searcher: client, orch: orch, logger: logger}, nil
}

func (a *app) Search(ctx context.Context, keyword string) ([]domain.Novel, error) {
	return a.searcher.Search(ctx, keyword)
}

// Download runs one job to completion and reports its outcome on out.
func (a *app) Download(ctx context.Context, novel domain.Novel, out io.Writer) (domain.Outcome, error) {
	h := a.orch.StartJob(ctx, svc.StartRequest{
		Locator: novel.Locator,
		Name:    novel.Name,
		Author:  novel.Author,
	})

	// Await must outlive ctx: an interrupt cancels the job, and the job
	// still has to report Cancelled.
	result, err := h.Await(context.Background())
	if err != nil {
		return result, err
	}
	printOutcome(out, novel, result, h.FailedUnits())
	return result, nil
}

func printOutcome(out io.Writer, novel domain.Novel, result domain.Outcome, failed int) {
	switch result.Kind {
	case domain.OutcomeCompleted:
		fmt.Fprintf(out, "《%s》下载完成: %s\n", novel.Name, result.Path)
		if failed > 0 {
			fmt.Fprintf(out, "其中 %d 章下载失败\n", failed)
		}
	case domain.OutcomeCancelled:
		fmt.Fprintf(out, "《%s》下载已取消\n", novel.Name)
	default:
		fmt.Fprintf(out, "《%s》下载失败: %s\n", novel.Name, result.Cause)
	}
}
