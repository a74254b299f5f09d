package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bucamari/pos-backend/internal/config"
	"github.com/bucamari/pos-backend/internal/database"
	"github.com/bucamari/pos-backend/internal/logging"
	"github.com/bucamari/pos-backend/internal/menu"
	"github.com/bucamari/pos-backend/internal/server"
	"github.com/bucamari/pos-backend/internal/storage"
	"github.com/bucamari/pos-backend/internal/tables"
	"github.com/bucamari/pos-backend/internal/tablesource"
	"github.com/bucamari/pos-backend/internal/ticket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bucamari-api",
		Short: "Bucamari restaurant POS backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("tables-source", defaults.GetString("tables.source"), "Table list origin (URL or JSON file)")
	cmd.PersistentFlags().String("menu-path", defaults.GetString("menu.path"), "Menu catalog JSON file (empty for built-in)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "tables.source", "tables-source")
	bindFlag(cmd, "menu.path", "menu-path")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := storage.New(storage.Config{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	sourceClient := tablesource.NewClient(appConfig.TableSource, logger)
	dispatcher := server.NewTableChangeDispatcher()

	tablesService, err := tables.NewService(tables.ServiceConfig{
		Storage:    store,
		Source:     sourceClient,
		Publisher:  dispatcher,
		Clock:      time.Now,
		IDProvider: tables.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// Initial reconcile against the table source; the front-end's reload
	// endpoint is the manual retry path when this fails.
	if _, err := tablesService.Load(ctx); err != nil {
		logger.Warn("initial table load failed", zap.Error(err))
	}

	catalog, err := menu.Load(appConfig.MenuPath)
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TablesService: tablesService,
		Dispatcher:    dispatcher,
		Restaurant: ticket.Restaurant{
			Name:    appConfig.RestaurantName,
			Address: appConfig.RestaurantAddress,
			Phone:   appConfig.RestaurantPhone,
			TaxID:   appConfig.RestaurantTaxID,
		},
		Menu:   catalog,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
