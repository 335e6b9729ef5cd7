package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/concalliq/concalliq/internal/bot"
	"github.com/concalliq/concalliq/internal/config"
	"github.com/concalliq/concalliq/internal/dataflows"
	"github.com/concalliq/concalliq/internal/llm"
	"github.com/concalliq/concalliq/internal/storage"
	"github.com/concalliq/concalliq/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string
	var digestCron string

	cmd := &cobra.Command{
		Use:          "concalliq",
		Short:        "AI stock intelligence bot for Indian retail investors",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if digestCron != "" {
				cfg.DigestCron = digestCron
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")
	cmd.Flags().StringVar(&digestCron, "digest-cron", "", "cron spec for the scheduled morning digest")
	return cmd
}

func run(cfg *config.Config) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// Create the schema up front so the first burst of workers does not race
	// on table creation.
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	store.Close()

	if cfg.AnthropicAPIKey == "" {
		log.Printf("ANTHROPIC_API_KEY not set; analyses will be placeholders")
	}

	tg := telegram.NewClient(cfg.TelegramToken)
	router := bot.NewRouter(cfg, tg, llm.NewAnalyst(cfg),
		dataflows.NewNSEClient(cfg),
		dataflows.NewScreenerClient(cfg),
		dataflows.NewBSEClient(cfg),
		dataflows.NewQuoteClient(cfg))

	if _, err := bot.StartDigestScheduler(cfg, router); err != nil {
		return err
	}

	log.Printf("ConcallIQ bot starting")
	bot.NewPoller(tg, router, cfg).Run(context.Background())
	return nil
}
