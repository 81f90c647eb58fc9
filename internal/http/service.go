package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/auth"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/config"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http/metric"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http/middleware"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg     config.HTTP
	logger  *slog.Logger
	metrics *metric.Metrics
	tokens  *auth.TokenIssuer

	userSvc     service.UserService
	productSvc  service.ProductService
	customerSvc service.CustomerService
	saleSvc     service.SaleService
	calendarSvc service.CalendarService
	reportSvc   service.ReportService
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	tokens *auth.TokenIssuer,
	userSvc service.UserService,
	productSvc service.ProductService,
	customerSvc service.CustomerService,
	saleSvc service.SaleService,
	calendarSvc service.CalendarService,
	reportSvc service.ReportService,
) *Service {
	return &Service{
		cfg:         cfg,
		logger:      log.With(slog.String("service", "http")),
		metrics:     metric.New(),
		tokens:      tokens,
		userSvc:     userSvc,
		productSvc:  productSvc,
		customerSvc: customerSvc,
		saleSvc:     saleSvc,
		calendarSvc: calendarSvc,
		reportSvc:   reportSvc,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)
	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	rs := newResponder(s.logger)

	userHandler := newUserHandler(rs, s.userSvc)
	productHandler := newProductHandler(rs, s.productSvc)
	customerHandler := newCustomerHandler(rs, s.customerSvc)
	saleHandler := newSaleHandler(rs, s.saleSvc)
	calendarHandler := newCalendarHandler(rs, s.calendarSvc)
	reportHandler := newReportHandler(rs, s.reportSvc)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		rs.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", userHandler.login)
		r.Post("/auth/register", userHandler.register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.tokens))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.list)
				r.Post("/", productHandler.create)
				r.Get("/low-stock", productHandler.listLowStock)
				r.Get("/filters", productHandler.filters)
				r.Get("/barcode/{barcode}", productHandler.getByBarcode)
				r.Get("/{id}", productHandler.get)
				r.Put("/{id}", productHandler.update)
				r.With(middleware.RequireAdmin()).Delete("/{id}", productHandler.delete)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", customerHandler.list)
				r.Post("/", customerHandler.create)
				r.Get("/search", customerHandler.search)
				r.Get("/{id}", customerHandler.get)
				r.Get("/{id}/sales", saleHandler.listByCustomer)
				r.Put("/{id}", customerHandler.update)
				r.Delete("/{id}", customerHandler.delete)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Get("/", saleHandler.list)
				r.Post("/", saleHandler.commit)
				r.Get("/{id}", saleHandler.get)
			})

			r.Route("/calendar-events", func(r chi.Router) {
				r.Get("/", calendarHandler.list)
				r.Post("/", calendarHandler.create)
				r.Put("/{id}", calendarHandler.update)
				r.Delete("/{id}", calendarHandler.delete)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/dashboard", reportHandler.dashboard)
				r.Get("/stock", reportHandler.stock)
				r.Get("/top-selling", reportHandler.topSelling)
				r.Get("/top-profit", reportHandler.topProfit)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", userHandler.list)
				r.Post("/", userHandler.register)
				r.Put("/{id}", userHandler.update)
				r.Delete("/{id}", userHandler.delete)
			})
		})
	})
}
