package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Bitlatte/postbook/internal/config"
	"github.com/Bitlatte/postbook/internal/content"
	"github.com/Bitlatte/postbook/internal/markdown"
	"github.com/Bitlatte/postbook/internal/model"
)

var (
	cfgFile   string
	logLevel  string
	appConfig config.Config
	siteData  = &model.SiteData{}
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "postbook",
	Short: "postbook - a static personal blog",
	Long: `postbook reads the Markdown posts in your content directory, renders
them with your layouts and writes a static blog (home, posts, archive,
categories, tags, about page and feeds) to the output directory.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. site carries the template params loaded by main.
func Execute(site *model.SiteData) {
	if site != nil {
		siteData = site
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: initializeConfig reads
	// rootCmd, which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = persistentPreRunE
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	used, err := initializeConfig()
	if err != nil {
		return err
	}
	logger, err = newLogger(appConfig.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if used != "" {
		logger.Debug("Using config file", zap.String("path", used))
	} else {
		logger.Debug("No config file found, using defaults and environment")
	}
	return nil
}

// initializeConfig fills appConfig from defaults, the config file, POSTBOOK_
// environment variables and flags, in increasing precedence. It returns the
// config file used, if any.
func initializeConfig() (string, error) {
	v := viper.New()

	for key, value := range config.Defaults() {
		v.SetDefault(key, value)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("POSTBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		return "", err
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFile == "":
		case errors.As(err, &notFound):
			return "", fmt.Errorf("config file %s not found: %w", cfgFile, err)
		default:
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return "", fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	appConfig = cfg
	return used, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// newIndex opens the content index described by cfg.
func newIndex(cfg config.Config, log *zap.Logger) (*content.Index, error) {
	renderer, err := markdown.NewGoldmark(markdown.Options{
		HighlightStyle: cfg.HighlightStyle,
		HardWraps:      cfg.HardWraps,
		Unsafe:         cfg.UnsafeHTML,
	})
	if err != nil {
		return nil, err
	}

	opts := []content.Option{
		content.WithLogger(log),
		content.WithRoot(cfg.ContentDir),
	}
	if cfg.AboutFile != "" {
		opts = append(opts, content.WithAbout(os.DirFS(filepath.Dir(cfg.AboutFile)), filepath.Base(cfg.AboutFile)))
	}
	if cfg.Cache {
		opts = append(opts, content.WithCache())
	}
	return content.New(os.DirFS(cfg.ContentDir), renderer, opts...), nil
}
