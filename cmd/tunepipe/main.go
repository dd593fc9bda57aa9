// Package main provides the tunepipe service entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunepipe/internal/acquire"
	"tunepipe/internal/core"
	httpserver "tunepipe/internal/http"
	"tunepipe/internal/metadata"
	"tunepipe/internal/pipeline"
	"tunepipe/internal/store"
	"tunepipe/internal/throttle"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunepipe",
	Short: "tunepipe - media resolution and acquisition service",
	Long: `tunepipe resolves platform links and free-text queries to track metadata
and acquires the media files through a tiered download chain.`,
	RunE: runTunepipe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("downloads-dir", "./downloads", "directory for acquired media files")
	rootCmd.PersistentFlags().String("audio-api-url", "", "hosted audio API base URL")
	rootCmd.PersistentFlags().String("video-api-url", "", "hosted video API base URL")
	rootCmd.PersistentFlags().String("proxy", "", "proxy URL for extractor runs")
	rootCmd.PersistentFlags().String("cookies-dir", "./cookies", "directory of credential files for extractor runs")
	rootCmd.PersistentFlags().String("ytdlp-path", "yt-dlp", "extractor binary path")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Int("search-limit", 5, "maximum free-text search results")
	rootCmd.PersistentFlags().Int("upstream-calls-per-minute", 60, "per-source upstream call budget")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("TUNEPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if v := viper.GetString("downloads-dir"); v != "" {
		cfg.Acquire.DownloadsDir = v
	}
	cfg.Acquire.AudioAPIURL = viper.GetString("audio-api-url")
	cfg.Acquire.VideoAPIURL = viper.GetString("video-api-url")
	cfg.Acquire.Proxy = viper.GetString("proxy")
	if v := viper.GetString("cookies-dir"); v != "" {
		cfg.Acquire.CredentialDir = v
	}
	if v := viper.GetString("ytdlp-path"); v != "" {
		cfg.Acquire.ExtractorPath = v
	}

	if v := viper.GetInt("search-limit"); v > 0 {
		cfg.Metadata.SearchLimit = v
	}
	if v := viper.GetInt("upstream-calls-per-minute"); v > 0 {
		cfg.Metadata.CallsPerMinute = v
	}

	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if v := viper.GetInt("server-port"); v > 0 {
		cfg.Server.Port = v
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTunepipe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting tunepipe",
		zap.String("downloads_dir", config.Acquire.DownloadsDir),
		zap.Bool("hosted_api", config.Acquire.AudioAPIURL != "" || config.Acquire.VideoAPIURL != ""),
		zap.Bool("proxy", config.Acquire.Proxy != ""))

	if err := os.MkdirAll(config.Acquire.DownloadsDir, 0o755); err != nil {
		return fmt.Errorf("creating downloads directory: %w", err)
	}

	gate := throttle.New(config.Metadata.CallsPerMinute)
	defer gate.Stop()

	innertube := metadata.NewInnertubeClient(&config.Metadata, gate, logger.Named("innertube"))
	oembed := metadata.NewOEmbedClient(config.Metadata.RequestTimeout, logger.Named("oembed"))
	fetcher := metadata.NewFetcher(innertube, innertube, oembed, config.Metadata.SearchLimit, logger.Named("fetcher"))

	strategy := acquire.NewStrategy(&config.Acquire, logger.Named("acquire"))
	ledger := store.NewLedger(config.Acquire.LedgerSize, 0.001)

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	pipe, err := pipeline.New(fetcher, strategy, ledger, config.Acquire.CacheSize, logger.Named("pipeline"))
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	pipe.SetMetrics(httpServer)
	httpServer.SetResolver(pipe)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				httpServer.SetLedgerSize(ledger.Size())
			}
		}
	})

	logger.Info("tunepipe started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("tunepipe stopped with error", zap.Error(err))
		return err
	}

	logger.Info("tunepipe stopped gracefully")
	return nil
}
