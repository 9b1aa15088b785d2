package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arzan03/storefront/internal/config"
	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/handlers"
	"github.com/arzan03/storefront/internal/logger"
	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/payments"
	"github.com/arzan03/storefront/internal/services"
	"github.com/arzan03/storefront/internal/storage"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx := context.Background()

	// Connect to MongoDB
	client, err := db.ConnectMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		logg.WithError(err).Fatal("mongodb connection failed")
	}
	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logg.WithError(err).Fatal("failed to create indexes")
	}
	logg.WithField("database", cfg.MongoDB).Info("connected to MongoDB")

	proofs, err := newProofStore(ctx, cfg, logg)
	if err != nil {
		logg.WithError(err).Fatal("failed to initialise proof storage")
	}

	var m mailer.Mailer = mailer.NewLogMailer(logg)
	if cfg.ResendAPIKey != "" {
		m = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}
	notifier := mailer.NewNotifier(m, cfg.MailWorkers, logg)

	users := db.NewUserStore(database)
	orders := db.NewOrderStore(database)
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	app := handlers.NewApp(handlers.Deps{
		Auth:     services.NewAuthService(users, tokens, notifier, cfg.FrontendURL, logg),
		Products: services.NewProductService(db.NewProductStore(database)),
		Orders:   services.NewOrderService(orders, notifier, logg),
		Payments: services.NewPaymentService(orders, proofs, notifier, cfg.AdminNotifyEmail, logg),
		Webhooks: services.NewWebhookService(orders, payments.NewMercadoPagoClient(cfg.MPAPIBase, cfg.MPAccessToken), logg),
		Carts:    services.NewCartService(db.NewCartStore(database)),
		Tokens:   tokens,

		AdminSetupKey: cfg.AdminSetupKey,
		UploadDir:     cfg.UploadDir,
		Log:           logg,
	},
		fiberlogger.New(),
		cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins()}),
	)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logg.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logg.WithError(err).Warn("server shutdown")
	}
	notifier.Close()
	if err := client.Disconnect(context.Background()); err != nil {
		logg.WithError(err).Warn("mongodb disconnect")
	}
}

func newProofStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (services.ProofStore, error) {
	if !cfg.MinioEnabled() {
		log.Warn("object storage not configured, keeping payment proofs on local disk")
		return storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	}
	return storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, log)
}
