package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/narzo/internal/apikey"
	apikeydomain "github.com/smallbiznis/narzo/internal/apikey/domain"
	"github.com/smallbiznis/narzo/internal/audit"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	"github.com/smallbiznis/narzo/internal/category"
	categorydomain "github.com/smallbiznis/narzo/internal/category/domain"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/entitlement"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
	"github.com/smallbiznis/narzo/internal/observability"
	obslogger "github.com/smallbiznis/narzo/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/narzo/internal/observability/metrics"
	obstracing "github.com/smallbiznis/narzo/internal/observability/tracing"
	"github.com/smallbiznis/narzo/internal/order"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	"github.com/smallbiznis/narzo/internal/payment"
	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
	"github.com/smallbiznis/narzo/internal/post"
	postdomain "github.com/smallbiznis/narzo/internal/post/domain"
	"github.com/smallbiznis/narzo/internal/product"
	productdomain "github.com/smallbiznis/narzo/internal/product/domain"
	"github.com/smallbiznis/narzo/internal/providers"
	"github.com/smallbiznis/narzo/internal/providers/pdf"
	"github.com/smallbiznis/narzo/internal/ratelimit"
	"github.com/smallbiznis/narzo/internal/storage"
	storagedomain "github.com/smallbiznis/narzo/internal/storage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	apikey.Module,
	audit.Module,
	category.Module,
	product.Module,
	post.Module,
	order.Module,
	entitlement.Module,
	payment.Module,
	providers.Module,
	storage.Module,
	ratelimit.Module,
	fx.Provide(func(c *tripay.Client) PaymentDirectory { return c }),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

// PaymentDirectory is the read side of the payment gateway used by the
// public channel and status endpoints.
type PaymentDirectory interface {
	ListChannels(ctx context.Context) ([]tripay.Channel, error)
	TransactionDetail(ctx context.Context, reference string) (*tripay.Transaction, error)
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	clock        clock.Clock
	products     productdomain.Service
	posts        postdomain.Service
	categories   categorydomain.Service
	orders       orderdomain.Service
	entitlements entitlementdomain.Service
	webhooks     paymentdomain.Service
	directory    PaymentDirectory
	audit        auditdomain.Service
	storage      storagedomain.Service
	apiKeys      apikeydomain.Authenticator
	limiter      *ratelimit.Limiter
	receipts     pdf.Provider
	channels     *channelsCache
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Clock        clock.Clock `optional:"true"`
	Products     productdomain.Service
	Posts        postdomain.Service
	Categories   categorydomain.Service
	Orders       orderdomain.Service
	Entitlements entitlementdomain.Service
	Webhooks     paymentdomain.Service
	Directory    PaymentDirectory
	Audit        auditdomain.Service
	Storage      storagedomain.Service
	APIKeys      apikeydomain.Authenticator
	Limiter      *ratelimit.Limiter `optional:"true"`
	Receipts     pdf.Provider
}

func NewServer(p ServerParams) *Server {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		clock:        clk,
		products:     p.Products,
		posts:        p.Posts,
		categories:   p.Categories,
		orders:       p.Orders,
		entitlements: p.Entitlements,
		webhooks:     p.Webhooks,
		directory:    p.Directory,
		audit:        p.Audit,
		storage:      p.Storage,
		apiKeys:      p.APIKeys,
		limiter:      p.Limiter,
		receipts:     p.Receipts,
		channels:     newChannelsCache(p.Cfg.Storefront.ChannelsCacheTTL, clk.Now),
	}

	s.engine.Use(s.corsMiddleware())
	s.registerStorefrontRoutes()
	s.registerContentRoutes()
	s.registerAdminRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerStorefrontRoutes() {
	api := s.engine.Group("/api")

	api.POST("/checkout", s.CheckoutRateLimit(), s.Checkout)

	api.POST("/tripay/callback", s.TripayCallback)
	api.GET("/tripay/channels", s.ListPaymentChannels)
	api.GET("/tripay/status", s.PaymentStatus)

	api.GET("/orders/:merchant_ref", s.GetOrder)
	api.GET("/orders/:merchant_ref/receipt", s.GetReceipt)

	api.GET("/download/:token", s.DownloadRateLimit(), s.Download)
}

func (s *Server) registerContentRoutes() {
	v1 := s.engine.Group("/api/v1")

	v1.GET("/products", s.ListProducts)
	v1.GET("/posts", s.ListPosts)
	v1.GET("/categories", s.ListCategories)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/v1", s.AdminRequired())

	admin.POST("/products", s.UpsertProduct)
	admin.PUT("/products", s.UpsertProduct)
	admin.DELETE("/products", s.DeleteProduct)

	admin.POST("/posts", s.UpsertPost)
	admin.PUT("/posts", s.UpsertPost)
	admin.DELETE("/posts", s.DeletePost)

	admin.POST("/categories", s.UpsertCategory)
	admin.PUT("/categories", s.UpsertCategory)
	admin.DELETE("/categories", s.DeleteCategory)

	admin.POST("/upload", s.UploadImage)
	admin.GET("/files", s.ListFiles)
	admin.HEAD("/files/*key", s.HeadFile)
	admin.PUT("/files/*key", s.PutFile)

	admin.GET("/audit-logs", s.ListAuditLogs)
}

// corsMiddleware opens the API to the site origin. Without a configured site
// every origin is allowed. It sits on the engine so preflights reach it.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead},
		AllowHeaders:  []string{"Origin", "Content-Type", HeaderAPIKey, "Authorization", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if origin := strings.TrimRight(strings.TrimSpace(s.cfg.Storefront.SiteURL), "/"); origin != "" {
		cfg.AllowOrigins = []string{origin}
	} else {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

func (s *Server) siteURL() string {
	return strings.TrimRight(strings.TrimSpace(s.cfg.Storefront.SiteURL), "/")
}
