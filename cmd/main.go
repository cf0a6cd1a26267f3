package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kovalyov-valentin/news-digest-bot/internal/config"
	"github.com/kovalyov-valentin/news-digest-bot/internal/logger"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

var (
	version = "dev"
	commit  = "none"
)

var flagConfig []string

var rootCmd = &cobra.Command{
	Use:           "news-digest-bot",
	Short:         "Telegram channel bot for market news and daily digests",
	Long:          "news-digest-bot reads market news feeds, posts matching items to a Telegram channel and pins an AI digest three times a day.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (default)",
	RunE:  runBot,
}

var digestCmd = &cobra.Command{
	Use:       "digest <morning|noon|evening|manual>",
	Short:     "Post and pin one digest, then exit",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"morning", "noon", "evening", "manual"},
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}

		cfg, catalog, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		log := logger.Init(cfg.LogLevel, cfg.LogFormat)

		a, err := newApp(ctx, cfg, catalog, log)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.digest.Publish(ctx, slot)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "digest posted: message %d, pinned %t\n", res.MessageID, res.Pinned)
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print the feed catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles()...)
		if err != nil {
			return err
		}

		catalog, err := config.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, feed := range catalog.Feeds {
			fmt.Fprintf(out, "%-28s %s\n", feed.Name, feed.FeedURL)
		}
		fmt.Fprintf(out, "\n%d feeds, %d keywords, %d negative keywords\n",
			len(catalog.Feeds), len(catalog.Keywords), len(catalog.NegativeKeywords))

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "news-digest-bot %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagConfig, "config", nil, "config files (hcl), default ./config.hcl and ./config.local.hcl")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configFiles() []string {
	if len(flagConfig) == 0 {
		return config.DefaultFiles
	}
	return flagConfig
}

// loadConfig читает конфиг и каталог. Без обязательных полей бот не стартует
func loadConfig() (config.Config, config.Catalog, error) {
	var (
		cfg config.Config
		err error
	)

	if len(flagConfig) == 0 {
		cfg = config.Get()
	} else if cfg, err = config.Load(flagConfig...); err != nil {
		return cfg, config.Catalog{}, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, config.Catalog{}, fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return cfg, config.Catalog{}, err
	}

	return cfg, catalog, nil
}

func parseSlot(s string) (model.Slot, error) {
	switch slot := model.Slot(strings.ToLower(strings.TrimSpace(s))); slot {
	case model.SlotMorning, model.SlotNoon, model.SlotEvening, model.SlotManual:
		return slot, nil
	default:
		return "", fmt.Errorf("unknown slot %q (morning, noon, evening, manual)", s)
	}
}
