// Command server runs the conference management API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"confcentral/config"
	"confcentral/internal/adapters/auth"
	"confcentral/internal/adapters/email"
	"confcentral/internal/cache"
	httpdelivery "confcentral/internal/delivery/http"
	"confcentral/internal/delivery/http/controllers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
	"confcentral/internal/pipeline"
	"confcentral/internal/queue"
	"confcentral/internal/search"
	"confcentral/internal/services"
	"confcentral/internal/store/postgres"

	_ "github.com/lib/pq"
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	store := postgres.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	appCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	index, err := search.Open(cfg.SearchIndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer index.Close()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretKey,
			InsecureSkipVerify: cfg.AWSInsecureTLS,
		},
	})
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}

	featured := pipeline.NewFeaturedSpeaker(store, appCache, logger)
	confirmation := pipeline.NewConfirmationEmail(mailer, logger)

	var taskQueue domain.Queue
	var stopQueue func()
	switch cfg.QueueProvider {
	case "sqs":
		client := awssqs.NewFromConfig(aws.Config{
			Region: cfg.AWSRegion,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
			),
		})
		q := queue.NewSQS(client, cfg.SQSQueueURL, logger)
		q.Register(domain.TaskAddFeaturedSpeaker, featured.Handle)
		q.Register(domain.TaskSendConfirmationEmail, confirmation.Handle)
		go func() {
			if err := q.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("queue poller stopped", "error", err)
			}
		}()
		taskQueue = q
		stopQueue = func() {}
	default:
		q := queue.NewInProc(256, logger)
		q.Register(domain.TaskAddFeaturedSpeaker, featured.Handle)
		q.Register(domain.TaskSendConfirmationEmail, confirmation.Handle)
		q.Start(ctx, cfg.QueueWorkers)
		taskQueue = q
		stopQueue = q.Stop
	}

	profileSvc := services.NewProfileService(store)
	conferenceSvc := services.NewConferenceService(store, appCache, taskQueue, logger)
	sessionSvc := services.NewSessionService(store, appCache, taskQueue, index, logger)
	wishlistSvc := services.NewWishlistService(store)
	registrationSvc := services.NewRegistrationService(store, logger)
	announcer := pipeline.NewAnnouncer(store, appCache, logger)

	verifier := auth.NewJWT(cfg.JWTSecret, cfg.JWTExpiry)
	requireProfile := middleware.RequireProfile(verifier, profileSvc, logger)

	mux := httpdelivery.NewRouter(
		requireProfile,
		controllers.NewProfileController(logger, profileSvc),
		controllers.NewConferenceController(logger, conferenceSvc, registrationSvc),
		controllers.NewSessionController(logger, sessionSvc),
		controllers.NewWishlistController(logger, wishlistSvc),
		controllers.NewCronController(logger, announcer),
	)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSOrigins, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
		stopQueue()
	}()

	logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
