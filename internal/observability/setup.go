package observability

import (
	"context"
	"net/http"

	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(serviceName string, cfg *config.Config) (func(context.Context) error, http.Handler) {
	observability.InitLogger(cfg.LogLevel)
	observability.InitMetrics()
	tracerShutdown := observability.InitTracing(serviceName, cfg.OTLPEndpoint)
	return tracerShutdown, promhttp.Handler()
}
