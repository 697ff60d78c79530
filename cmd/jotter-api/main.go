package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/jotter/internal/auth"
	"github.com/MarcoPoloResearchLab/jotter/internal/config"
	"github.com/MarcoPoloResearchLab/jotter/internal/database"
	"github.com/MarcoPoloResearchLab/jotter/internal/logging"
	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/MarcoPoloResearchLab/jotter/internal/server"
	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"github.com/MarcoPoloResearchLab/jotter/internal/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jotter-api",
		Short: "Jotter notes service",
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
	cmd.PersistentFlags().String("http-host", defaults.GetString("http.host"), "HTTP listen host")
	cmd.PersistentFlags().Int("http-port", defaults.GetInt("http.port"), "HTTP listen port")
	cmd.PersistentFlags().StringSlice("allowed-origins", defaults.GetStringSlice("http.allowed_origins"), "CORS allowed origins")
	cmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Storage driver (sqlite, mongo)")
	cmd.PersistentFlags().String("database-url", defaults.GetString("database.url"), "SQLite path or MongoDB connection string")
	cmd.PersistentFlags().String("database-name", defaults.GetString("database.name"), "MongoDB database name")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")
	cmd.PersistentFlags().Bool("web", defaults.GetBool("web.enabled"), "Serve the browser client")

	bindFlag(cmd, "http.host", "http-host")
	bindFlag(cmd, "http.port", "http-port")
	bindFlag(cmd, "http.allowed_origins", "allowed-origins")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.url", "database-url")
	bindFlag(cmd, "database.name", "database-name")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "web.enabled", "web")
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

type stores struct {
	users users.Store
	notes notes.Store
	close func()
}

func openStores(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (stores, error) {
	switch appConfig.DatabaseDriver {
	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, database.MongoConfig{
			URI:            appConfig.DatabaseURL,
			Database:       appConfig.DatabaseName,
			ConnectTimeout: appConfig.ConnectTimeout,
		}, logger)
		if err != nil {
			return stores{}, err
		}
		closeClient := func() { _ = client.Disconnect(context.Background()) }
		userStore, err := users.NewMongoStore(db)
		if err != nil {
			closeClient()
			return stores{}, err
		}
		noteStore, err := notes.NewMongoStore(db)
		if err != nil {
			closeClient()
			return stores{}, err
		}
		return stores{users: userStore, notes: noteStore, close: closeClient}, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(appConfig.DatabaseURL, logger)
		if err != nil {
			return stores{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return stores{}, err
		}
		closeDB := func() { _ = sqlDB.Close() }
		userStore, err := users.NewGormStore(db)
		if err != nil {
			closeDB()
			return stores{}, err
		}
		noteStore, err := notes.NewGormStore(db)
		if err != nil {
			closeDB()
			return stores{}, err
		}
		return stores{users: userStore, notes: noteStore, close: closeDB}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", appConfig.DatabaseDriver)
	}
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

	storage, err := openStores(ctx, appConfig, logger)
	if err != nil {
		logger.Error("database unavailable", zap.String("driver", appConfig.DatabaseDriver), zap.Error(err))
		return err
	}
	defer storage.close()

	tokenCodec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "jotter-auth",
		Audience:      "jotter-api",
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	idProvider := notes.NewUUIDProvider()
	usersService, err := users.NewService(users.ServiceConfig{
		Store:      storage.users,
		Hasher:     auth.NewPasswordHasher(appConfig.PasswordCost),
		Tokens:     tokenCodec,
		IDProvider: idProvider,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	notesService, err := notes.NewService(notes.ServiceConfig{
		Store:      storage.notes,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	gate, err := auth.NewGate(auth.GateConfig{
		Verifier: tokenCodec,
		Resolver: usersService,
	})
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Authenticator:  gate,
		AuthService:    usersService,
		NotesService:   notesService,
		Logger:         logger,
		AllowedOrigins: appConfig.AllowedOrigins,
	}
	if appConfig.WebEnabled {
		deps.Client = web.Register
	}
	handler, err := server.NewHTTPHandler(deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress()))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
