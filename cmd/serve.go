package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/controllers"
	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/gilanghuda/weekly-report-backend/pkg/config"
	"github.com/gilanghuda/weekly-report-backend/pkg/database"
	"github.com/gilanghuda/weekly-report-backend/pkg/logger"
	"github.com/gilanghuda/weekly-report-backend/pkg/routes"
	"github.com/gilanghuda/weekly-report-backend/pkg/storage"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file (default .env when present).")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(&logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Output:     cfg.LogOutput,
		LogPath:    cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}); err != nil {
		return err
	}
	log := logger.GetLogger("app")

	db, err := database.InitDB(ctx, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.CloseDB()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var auditCollection *mongo.Collection
	mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.WithError(err).Warn("mongo unavailable, audit entries go to the audit log only")
	} else if mongoDB != nil {
		auditCollection = mongoDB.Collection(database.AuditCollection)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = database.DisconnectMongo(shutdownCtx, mongoDB)
		}()
	}

	var redisClient *redis.Client
	redisClient, err = database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, stats are not cached")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	users := &queries.UserQueries{DB: db}
	reports := &queries.ReportQueries{DB: db}
	audit := &queries.AuditQueries{Collection: auditCollection, Log: logger.GetLogger("audit")}
	cache := &queries.StatsCache{Client: redisClient, TTL: cfg.StatsCacheTTL}

	mailer := utils.NewMailer(utils.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		DevMode:  cfg.EmailDevMode,
	}, log)
	notifier := utils.NewNotifier(log)
	slack := &utils.SlackNotifier{Webhook: cfg.SlackWebhook}
	dispatcher := controllers.NewReviewDispatcher(100, mailer, slack, notifier, log)
	jwt := utils.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	err = controllers.EnsureAdmin(ctx, users, controllers.AdminSeed{
		Username: cfg.DefaultAdminUsername,
		Email:    cfg.DefaultAdminEmail,
		Password: cfg.DefaultAdminPassword,
	}, log)
	if err != nil {
		return err
	}

	app := routes.NewApp(routes.Options{
		CORSOrigins:     cfg.AllowedOrigins(),
		BodyLimit:       int(cfg.MaxUploadBytes())*5 + 1024*1024,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		Log:             log,
	}, routes.Handlers{
		Auth: &controllers.AuthController{
			Users:       users,
			Tokens:      &queries.RefreshTokenQueries{DB: db},
			Resets:      &queries.PasswordResetQueries{DB: db},
			JWT:         jwt,
			Google:      &utils.GoogleVerifier{ClientID: cfg.GoogleOAuthClentID},
			Mailer:      mailer,
			Audit:       audit,
			RefreshTTL:  cfg.RefreshTokenTTL,
			ResetTTL:    cfg.PasswordResetTTL,
			FrontendURL: cfg.FrontendURL,
			Log:         log,
		},
		Users: &controllers.UserController{Users: users, Audit: audit, Log: log},
		Reports: &controllers.ReportController{
			Reports:        reports,
			Users:          users,
			Files:          files,
			Audit:          audit,
			Mailer:         mailer,
			Cache:          cache,
			MaxUploadBytes: cfg.MaxUploadBytes(),
			Log:            log,
		},
		Review: &controllers.ReviewController{
			Reports: reports,
			Users:   users,
			Audit:   audit,
			Cache:   cache,
			Events:  dispatcher,
			Log:     log,
		},
		Notifications: &controllers.NotificationController{Notifier: notifier, Log: log},
		JWT:           jwt,
		Accounts:      users,
	})

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	listenErr := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.Address).Info("server listening")
		listenErr <- app.Listen(cfg.Address)
	}()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = app.ShutdownWithContext(shutdownCtx)
		cancel()
	}

	stopDispatch()
	<-dispatchDone
	return err
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.S3Bucket != "" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewDiskStore(cfg.UploadDir)
}
