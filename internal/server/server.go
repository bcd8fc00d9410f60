package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicely/internal/auth"
	"github.com/smallbiznis/invoicely/internal/client"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/estimate"
	estimatedomain "github.com/smallbiznis/invoicely/internal/estimate/domain"
	"github.com/smallbiznis/invoicely/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicely/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicely/internal/observability/tracing"
	"github.com/smallbiznis/invoicely/internal/payment"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
	"github.com/smallbiznis/invoicely/internal/product"
	"github.com/smallbiznis/invoicely/internal/providers"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/internal/recurring"
	recurringdomain "github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/internal/report"
	reportdomain "github.com/smallbiznis/invoicely/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	client.Module,
	product.Module,
	invoice.Module,
	payment.Module,
	estimate.Module,
	recurring.Module,
	report.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	log          *zap.Logger
	resolver     *auth.Resolver
	clock        clock.Clock
	invoiceSvc   invoicedomain.Service
	paymentSvc   paymentdomain.Service
	estimateSvc  estimatedomain.Service
	recurringSvc recurringdomain.Service
	reportSvc    reportdomain.Service
	renderer     pdf.Renderer
	reporting    *config.ReportingConfigHolder
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Resolver     *auth.Resolver
	Clock        clock.Clock
	InvoiceSvc   invoicedomain.Service
	PaymentSvc   paymentdomain.Service
	EstimateSvc  estimatedomain.Service
	RecurringSvc recurringdomain.Service
	ReportSvc    reportdomain.Service
	Renderer     pdf.Renderer
	Reporting    *config.ReportingConfigHolder `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	reporting := p.Reporting
	if reporting == nil {
		reporting = config.NewStaticReportingConfigHolder(config.DefaultReportingConfig())
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		resolver:     p.Resolver,
		clock:        clk,
		invoiceSvc:   p.InvoiceSvc,
		paymentSvc:   p.PaymentSvc,
		estimateSvc:  p.EstimateSvc,
		recurringSvc: p.RecurringSvc,
		reportSvc:    p.ReportSvc,
		renderer:     p.Renderer,
		reporting:    reporting,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.POST("/invoices/:id/send", s.SendInvoice)

	// -------- Payments --------
	api.GET("/invoices/:id/payments", s.ListPayments)
	api.POST("/invoices/:id/payments", s.RecordPayment)
	api.DELETE("/invoices/:id/payments/:paymentId", s.DeletePayment)

	// -------- Estimates --------
	api.GET("/estimates", s.ListEstimates)
	api.POST("/estimates", s.CreateEstimate)
	api.GET("/estimates/:id", s.GetEstimateByID)
	api.PUT("/estimates/:id", s.UpdateEstimate)
	api.DELETE("/estimates/:id", s.DeleteEstimate)
	api.POST("/estimates/:id/convert", s.ConvertEstimate)

	// -------- Recurring --------
	api.GET("/recurring", s.ListRecurring)
	api.POST("/recurring", s.CreateRecurring)
	api.GET("/recurring/:id", s.GetRecurringByID)
	api.PUT("/recurring/:id", s.UpdateRecurring)
	api.DELETE("/recurring/:id", s.DeleteRecurring)

	// -------- Reports --------
	reports := api.Group("/reports")
	reports.GET("/dashboard-stats", s.GetDashboardStats)
	reports.GET("/revenue", s.GetRevenue)
	reports.GET("/invoice-aging", s.GetInvoiceAging)
	reports.GET("/client-summary", s.GetClientSummary)
	reports.GET("/export", s.Export)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
