package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/hsmoadigest/config"
	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/internal/digest"
	"sjsage522/hsmoadigest/internal/scraper"
	"sjsage522/hsmoadigest/logger"
	"sjsage522/hsmoadigest/services/notifier"
	"sjsage522/hsmoadigest/services/publisher"
	"sjsage522/hsmoadigest/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// runDeadline is the wall-clock ceiling for one run
const runDeadline = 10 * time.Minute

var (
	htmlPath    string
	contentType string
	notifyParse bool
)

var rootCmd = &cobra.Command{
	Use:           "hsmoa-digest",
	Short:         "Scrapes today's hsmoa.com broadcast schedule and posts a digest to Slack",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape the live schedule once and deliver exactly one digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context())
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse --html <path/to/page.html>",
	Short: "Extract a saved schedule page and print its digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd.Context())
	},
}

func init() {
	parseCmd.Flags().StringVar(&htmlPath, "html", "", "Saved HTML page to extract.")
	parseCmd.Flags().StringVar(&contentType, "content-type", "text/html", "Content type used to detect the page charset.")
	parseCmd.Flags().BoolVar(&notifyParse, "notify", false, "Also post the digest to the configured webhook.")
	_ = parseCmd.MarkFlagRequired("html")

	rootCmd.AddCommand(runCmd, parseCmd)
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Set up context with cancellation on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Default.Error().Err(err).Msg("Run failed")
		stop()
		os.Exit(1)
	}
}

// runScrape performs one live run
func runScrape(ctx context.Context) error {
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		reportConfigError(ctx, cfg.WebhookURL, err)
		return err
	}

	filters := filterSpecFrom(cfg)
	launcher, err := browser.NewLauncher(cfg.BrowserEngine)
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("engine", launcher.Name()).
		Str("url", cfg.TargetURL).
		Strs("filters", filters.Labels()).
		Msg("Starting run")

	s, err := scraper.New(launcher, filters, scraperOptions(cfg))
	if err != nil {
		return err
	}

	opts := []worker.Option{worker.WithDevelopment(!cfg.IsProduction())}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		defer redisPublisher.Close()
		opts = append(opts, worker.WithPublisher(redisPublisher))

		logger.Info("Publishing schedule to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	slack := notifier.NewSlackNotifier(cfg.WebhookURL, notifier.DefaultTimeout)
	w := worker.NewWorker(s, slack, filters, cfg.DigestMaxLines, opts...)

	runCtx, cancel := context.WithTimeout(ctx, runDeadline)
	defer cancel()
	return w.RunOnce(runCtx)
}

// reportConfigError posts the error digest when a webhook is configured. A
// failed post is logged; the configuration error stays the run's result.
func reportConfigError(ctx context.Context, webhookURL string, cfgErr error) {
	// 웹훅이 있으면 설정 오류도 알림
	if webhookURL == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifier.DefaultTimeout)
	defer cancel()
	slack := notifier.NewSlackNotifier(webhookURL, notifier.DefaultTimeout)
	if err := slack.Notify(sendCtx, digest.BuildError(cfgErr, time.Now())); err != nil {
		logger.LogError("notifier", err, "failed to report configuration error: %v", cfgErr)
	}
}

// runParse extracts a saved page without a browser
func runParse(ctx context.Context) error {
	cfg := config.LoadConfig()
	filters := filterSpecFrom(cfg)

	f, err := os.Open(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", htmlPath, err)
	}
	defer f.Close()

	page, err := browser.NewSnapshotPage(f, contentType)
	if err != nil {
		return err
	}

	s, err := scraper.New(nil, filters, scraperOptions(cfg))
	if err != nil {
		return err
	}
	result := s.ParseSnapshot(ctx, page)
	text := digest.Build(result.Items, filters, time.Now(), cfg.DigestMaxLines)
	fmt.Println(text)

	if notifyParse {
		if cfg.WebhookURL == "" {
			return fmt.Errorf("--notify needs SLACK_WEBHOOK_URL")
		}
		return notifier.NewSlackNotifier(cfg.WebhookURL, notifier.DefaultTimeout).Notify(ctx, text)
	}
	return nil
}

// filterSpecFrom maps the filter settings onto the scraper's filter spec
func filterSpecFrom(cfg *config.Config) scraper.FilterSpec {
	return scraper.FilterSpec{
		ShopText:               cfg.ShopText,
		ShopLabelPattern:       cfg.ShopLogo,
		CategoryText:           cfg.CategoryText,
		CategoryLabelPattern:   cfg.CategoryLogo,
		CategoryKeywordPattern: cfg.CategoryKeyword,
	}
}

// scraperOptions maps the bounded-wait settings onto scraper options
func scraperOptions(cfg *config.Config) scraper.Options {
	opts := scraper.DefaultOptions()
	opts.URL = cfg.TargetURL
	opts.Profile.Proxy = cfg.BrowserProxy
	opts.NavigationTimeout = cfg.NavigationTimeout
	opts.NavigationRetries = cfg.NavigationRetries
	opts.NavigationBackoff = cfg.NavigationBackoff
	opts.ScrollMaxRounds = cfg.ScrollMaxRounds
	opts.ScrollSettle = cfg.ScrollSettle
	opts.FilterSettle = cfg.FilterSettle
	opts.MaxRows = cfg.MaxRows
	return opts
}
