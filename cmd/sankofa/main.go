package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sankofalearn/sankofa-go/internal/cliconfig"
	"github.com/sankofalearn/sankofa-go/internal/session"
	"github.com/sankofalearn/sankofa-go/internal/store/cachestore"
	"github.com/sankofalearn/sankofa-go/pkg/api"
)

const (
	flagBaseURL         = "base-url"
	flagCachePath       = "cache"
	flagHTTPTimeout     = "timeout"
	configKeyBaseURL    = "base_url"
	configKeyCachePath  = "cache_path"
	configKeyTimeout    = "http_timeout"
	envBaseURL          = "SANKOFA_BASE_URL"
	envCachePath        = "SANKOFA_CACHE_PATH"
	envTimeout          = "SANKOFA_HTTP_TIMEOUT"
	breakerName         = "sankofa-backend"
	defaultBaseURLFlag  = "http://127.0.0.1:8000"
	defaultCacheFlag    = "sankofa.db"
	defaultTimeoutValue = 30 * time.Second
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sankofa: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &cliconfig.Config{}
	cmd := &cobra.Command{
		Use:           "sankofa",
		Short:         "Sankofa Learn marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
	}

	cmd.PersistentFlags().String(flagBaseURL, defaultBaseURLFlag, "backend base URL")
	cmd.PersistentFlags().String(flagCachePath, defaultCacheFlag, "local cache database path")
	cmd.PersistentFlags().Duration(flagHTTPTimeout, defaultTimeoutValue, "HTTP request timeout")

	cmd.AddCommand(
		newLoginCommand(cfg),
		newLogoutCommand(cfg),
		newWhoamiCommand(cfg),
		newBundlesCommand(cfg),
		newCoursesCommand(cfg),
		newPurchasesCommand(cfg),
		newCheckoutCommand(cfg),
		newExamCommand(cfg),
		newDashboardCommand(cfg),
		newTasksCommand(cfg),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv(configKeyBaseURL, envBaseURL); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyCachePath, envCachePath); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyTimeout, envTimeout); err != nil {
		return err
	}

	if err := viper.BindPFlag(configKeyBaseURL, cmd.Flags().Lookup(flagBaseURL)); err != nil {
		return err
	}
	if err := viper.BindPFlag(configKeyCachePath, cmd.Flags().Lookup(flagCachePath)); err != nil {
		return err
	}
	if err := viper.BindPFlag(configKeyTimeout, cmd.Flags().Lookup(flagHTTPTimeout)); err != nil {
		return err
	}

	cfg.BaseURL = viper.GetString(configKeyBaseURL)
	cfg.CachePath = viper.GetString(configKeyCachePath)
	cfg.HTTPTimeout = viper.GetDuration(configKeyTimeout)
	return cfg.Validate()
}

// environment bundles the wired dependencies of one command invocation.
type environment struct {
	cfg    *cliconfig.Config
	logger *zap.Logger
	cache  *cachestore.Store
	client *api.Client
}

func newEnvironment(cfg *cliconfig.Config) (*environment, func(), error) {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}

	gormDB, closeDB, err := openCache(cfg.CachePath)
	if err != nil {
		_ = zapLogger.Sync()
		return nil, nil, fmt.Errorf("cache open: %w", err)
	}
	cache := cachestore.New(gormDB)
	if err := cache.Migrate(); err != nil {
		_ = closeDB()
		_ = zapLogger.Sync()
		return nil, nil, err
	}

	// Drop a locally expired credential before any request goes out.
	if token, ok := cache.Token(); ok && session.Expired(token, time.Now()) {
		if err := cache.ClearToken(); err == nil {
			fmt.Fprintln(os.Stderr, "stored session expired, please log in again")
		}
	}

	client, err := api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithTokens(cache),
		api.WithLogger(zapLogger),
		api.WithBreaker(breakerName),
		api.WithAuthFailureHandler(func(apiError *api.APIError) {
			fmt.Fprintln(os.Stderr, apiError.UserMessage())
		}),
	)
	if err != nil {
		_ = closeDB()
		_ = zapLogger.Sync()
		return nil, nil, fmt.Errorf("client init: %w", err)
	}

	env := &environment{cfg: cfg, logger: zapLogger, cache: cache, client: client}
	cleanup := func() {
		_ = closeDB()
		_ = zapLogger.Sync()
	}
	return env, cleanup, nil
}

func openCache(path string) (*gorm.DB, func() error, error) {
	normalized, err := normalizeCachePath(path)
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(sqlite.Open(normalized), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, sqlDB.Close, nil
}

func normalizeCachePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
