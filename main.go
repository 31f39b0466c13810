package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuchsia74/nova-agent/common/config"
	"github.com/fuchsia74/nova-agent/common/graceful"
	"github.com/fuchsia74/nova-agent/common/logger"
	"github.com/fuchsia74/nova-agent/relay"
)

func main() {
	logger.SetupLogger()
	logger.Logger.Info("nova-agent relay starting",
		zap.String("region", config.AWSRegion),
		zap.String("default_model", config.DefaultModel))

	if config.GinMode != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	server.Use(cors.Default())

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Logger.Info("Prometheus metrics endpoint available at /metrics")
	}

	relay.SetRouter(server, relay.NewServer())

	srv := &http.Server{
		Addr:    ":" + config.ServerPort,
		Handler: server,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info("shutdown signal received, draining in-flight requests")

	ctx, cancel := context.WithTimeout(context.Background(), config.GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("server shutdown", zap.Error(err))
	}
	if err := graceful.Drain(ctx); err != nil {
		logger.Logger.Warn("some requests did not finish before shutdown", zap.Error(err))
	}
	logger.Logger.Info("server exited")
}
