package handlers

import (
	"path/filepath"

	"github.com/arzan03/storefront/internal/metrics"
	"github.com/arzan03/storefront/internal/middleware"
	"github.com/arzan03/storefront/internal/services"
	"github.com/arzan03/storefront/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// bodyLimit leaves room for a 6 MB proof plus multipart overhead.
const bodyLimit = 8 << 20

type Deps struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Webhooks *services.WebhookService
	Carts    *services.CartService
	Tokens   middleware.TokenParser

	AdminSetupKey string
	UploadDir     string
	Log           logrus.FieldLogger
}

// NewApp builds the Fiber app with the error handler, the given middleware and all routes.
func NewApp(d Deps, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(d.Log),
		BodyLimit:    bodyLimit,
	})

	// metrics wraps recover so a panicking handler is still counted as a 500
	app.Use(metrics.Middleware)
	app.Use(recover.New())
	for _, h := range extra {
		app.Use(h)
	}

	Register(app, d)
	return app
}

func Register(app *fiber.App, d Deps) {
	auth := middleware.NewAuth(d.Tokens)

	authHandler := NewAuthHandler(d.Auth)
	productHandler := NewProductHandler(d.Products)
	orderHandler := NewOrderHandler(d.Orders)
	adminHandler := NewAdminHandler(d.Orders, d.Payments)
	fileHandler := NewFileHandler(d.Payments, d.UploadDir)
	webhookHandler := NewWebhookHandler(d.Webhooks, d.Log)
	cartHandler := NewCartHandler(d.Carts)

	app.Get("/metrics", metrics.Handler())
	app.Static("/uploads/"+storage.ProofDir, filepath.Join(d.UploadDir, storage.ProofDir))

	api := app.Group("/api")
	api.Get("/health", Health)

	// Auth Routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", auth.RequireUser, authHandler.Me)
	authRoutes.Post("/make-admin", auth.AdminOrSetupKey(d.AdminSetupKey), authHandler.MakeAdmin)
	authRoutes.Post("/forgot-password", authHandler.ForgotPassword)
	authRoutes.Post("/reset-password", authHandler.ResetPassword)

	// Product Routes
	products := api.Group("/products")
	products.Get("/", productHandler.List)
	products.Get("/single", productHandler.Single)
	products.Get("/all", auth.RequireUser, middleware.RequireAdmin, productHandler.All)
	products.Get("/:id", productHandler.Get)
	products.Post("/", auth.RequireUser, middleware.RequireAdmin, productHandler.Create)
	products.Patch("/:id", auth.RequireUser, middleware.RequireAdmin, productHandler.Patch)

	// Order Routes
	orders := api.Group("/orders")
	orders.Post("/", auth.Optional, orderHandler.Create)
	orders.Get("/my", auth.RequireUser, orderHandler.Mine)
	orders.Get("/", auth.RequireUser, middleware.RequireAdmin, adminHandler.ListOrders)
	orders.Patch("/:id/status", auth.RequireUser, middleware.RequireAdmin, adminHandler.UpdateStatus)
	orders.Post("/:id/payment-proof", auth.RequireUser, fileHandler.UploadPaymentProof)
	orders.Post("/:id/verify", auth.RequireUser, middleware.RequireAdmin, adminHandler.VerifyPayment)
	orders.Post("/:id/reject", auth.RequireUser, middleware.RequireAdmin, adminHandler.RejectPayment)

	api.Post("/carts/abandoned", cartHandler.CaptureAbandoned)
	api.Post("/webhooks/mercadopago", webhookHandler.MercadoPago)
}
