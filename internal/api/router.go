package api

import (
	"net"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/glimpse/storefront-api/docs"
	"github.com/glimpse/storefront-api/internal/api/handler"
	"github.com/glimpse/storefront-api/internal/api/middleware"
	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const bodyLimit = "1M"

// Deps is everything the HTTP layer needs from the rest of the process.
type Deps struct {
	Auth    ports.AuthService
	Catalog ports.CatalogService
	Cart    ports.CartService
	Orders  ports.OrderService
	Reviews ports.ReviewService
	Tokens  ports.TokenService

	// MongoPing is required. RedisPing is nil when caching is disabled.
	MongoPing handler.PingFunc
	RedisPing handler.PingFunc

	Logger      zerolog.Logger
	CORSOrigins []string
	// TrustedProxies are the peers allowed to set X-Forwarded-For. With
	// none, the client IP used for rate limiting is the peer address.
	TrustedProxies []*net.IPNet
	// ExposeErrorDetail adds the cause of internal errors to 500 responses.
	ExposeErrorDetail bool

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.ExposeErrorDetail)
	e.IPExtractor = clientIPExtractor(d.TrustedProxies)

	registerer, gatherer := d.Registerer, d.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, handler.HeaderAdminSecret,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID, handler.HeaderCache},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.MongoPing, d.RedisPing)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API v1 ---
	v1 := e.Group("/api/v1", middleware.RateLimit(middleware.APILimit))
	authn := middleware.Authenticate(d.Tokens)
	adminOnly := middleware.RoleGate(domain.RoleAdmin)

	authHandler := handler.NewAuthHandler(d.Auth)
	// Forgot and reset share one budget: a reset attempt spends the same
	// allowance as requesting the link.
	resetLimit := middleware.RateLimit(middleware.ResetLimit)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup, middleware.RateLimit(middleware.SignupLimit))
	auth.POST("/login", authHandler.Login, middleware.RateLimit(middleware.LoginLimit))
	auth.POST("/forgot-password", authHandler.ForgotPassword, resetLimit)
	auth.POST("/reset-password", authHandler.ResetPassword, resetLimit)
	auth.GET("/profile", authHandler.Profile, authn)
	auth.PUT("/profile", authHandler.UpdateProfile, authn)
	auth.POST("/change-password", authHandler.ChangePassword, authn)

	productHandler := handler.NewProductHandler(d.Catalog)
	products := v1.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, authn, adminOnly)
	products.PUT("/:id", productHandler.Update, authn, adminOnly)
	products.DELETE("/:id", productHandler.Delete, authn, adminOnly)

	// Ownership of cart items, orders and reviews is checked by the services.
	cartHandler := handler.NewCartHandler(d.Cart)
	cart := v1.Group("/cart", authn)
	cart.GET("", cartHandler.List)
	cart.POST("/:productId", cartHandler.Add)
	cart.PUT("/:id", cartHandler.Update)
	cart.DELETE("/:id", cartHandler.Remove)

	orderHandler := handler.NewOrderHandler(d.Orders)
	orders := v1.Group("/orders", authn)
	orders.POST("", orderHandler.Create)
	orders.GET("/my-orders", orderHandler.ListMine)
	orders.PUT("/admin/:id", orderHandler.AdminUpdate, adminOnly)
	orders.PUT("/:id", orderHandler.Update)
	orders.DELETE("/:id", orderHandler.Delete)

	reviewHandler := handler.NewReviewHandler(d.Reviews)
	reviews := v1.Group("/reviews")
	reviews.GET("/product/:productId", reviewHandler.ListByProduct)
	reviews.POST("", reviewHandler.Create, authn)
	reviews.PUT("/:id", reviewHandler.Update, authn)
	reviews.DELETE("/:id", reviewHandler.Delete, authn)

	return e
}

// clientIPExtractor reads X-Forwarded-For only when the direct peer is a
// configured proxy, so clients cannot pick their own rate-limit key.
func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
