package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/auth"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/controller"
	grpcserver "github.com/vibast-solutions/ms-go-athlete-subscriptions/app/grpc"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/service"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/validation"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/config"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the athlete subscriptions service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// internalGate holds the fleet internal access middlewares. Both are nil when
// INTERNAL_AUTH_GRPC_ADDR is not configured.
type internalGate struct {
	echo *authmiddleware.EchoInternalAuthMiddleware
	grpc *authmiddleware.GRPCInternalAuthMiddleware
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	store, closeStore, err := openSubscriptionStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}
	defer closeStore()

	peers, err := dialPeers(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize peer clients")
	}
	defer peers.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checker := peers.checker(cfg, reference.NewMetrics(registry))
	orchestrator := validation.NewOrchestrator(checker,
		validation.WithParallelChecks(cfg.Validation.Parallel),
		validation.WithMetrics(validation.NewMetrics(registry)),
	)
	subscriptionService := service.NewSubscriptionService(store)
	subscriptionController := controller.NewSubscriptionController(subscriptionService, orchestrator)
	grpcSubscriptionServer := grpcserver.NewServer(subscriptionService)
	bearerAuth := auth.NewMiddleware(auth.NewRemoteAuthorizer(peers.auth, cfg.Validation.CheckTimeout))

	gate := internalGate{}
	if cfg.InternalEndpoints.AuthGRPCAddr != "" {
		authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize internal auth gRPC client")
		}
		defer authGRPCClient.Close()
		internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
		gate.echo = authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
		gate.grpc = authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)
	} else {
		logrus.Info("Internal access gate disabled")
	}

	e := setupHTTPServer(cfg, subscriptionController, bearerAuth, gate, registry)
	grpcSrv, lis := setupGRPCServer(cfg, grpcSubscriptionServer, gate)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	cfg *config.Config,
	subscriptionController *controller.SubscriptionController,
	bearerAuth *auth.Middleware,
	gate internalGate,
	registry *prometheus.Registry,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))
	e.Use(propagateRequestID)
	if cfg.RateLimit.Enabled() {
		e.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
				Burst:     cfg.RateLimit.Burst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	e.GET("/health", subscriptionController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	guards := []echo.MiddlewareFunc{}
	if gate.echo != nil {
		guards = append(guards, gate.echo.RequireInternalAccess(cfg.App.ServiceName))
	}
	guards = append(guards, bearerAuth.RequireBearer())

	subscriptions := e.Group("/subscriptions", guards...)
	subscriptions.GET("/:ownerId", subscriptionController.GetSubscription)
	subscriptions.POST("/:ownerId", subscriptionController.CreateSubscription)
	subscriptions.PUT("/:ownerId", subscriptionController.UpdateSubscription)
	subscriptions.DELETE("/:ownerId", subscriptionController.DeleteSubscription)

	return e
}

// propagateRequestID exposes the HTTP request id to outgoing peer calls.
func propagateRequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(grpcserver.ContextWithRequestID(req.Context(), requestID)))
		return next(c)
	}
}

func setupGRPCServer(
	cfg *config.Config,
	subscriptionServer *grpcserver.Server,
	gate internalGate,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	interceptors := []grpc.UnaryServerInterceptor{
		grpcserver.RecoveryInterceptor(),
		grpcserver.RequestIDInterceptor(),
		grpcserver.LoggingInterceptor(),
	}
	if gate.grpc != nil {
		interceptors = append(interceptors, gate.grpc.UnaryRequireInternalAccess(cfg.App.ServiceName))
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	messaging.RegisterPatternServer(grpcSrv, subscriptionServer)

	return grpcSrv, lis
}
