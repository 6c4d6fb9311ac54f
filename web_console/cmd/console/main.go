package main

import (
	"time"

	"sorrymonster/pkg/clients"
	"sorrymonster/pkg/config"
	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/monitoring"
	"sorrymonster/pkg/server"
	"sorrymonster/pkg/version"
	"sorrymonster/web_console/internal/generation"
	"sorrymonster/web_console/internal/proxy"
	"sorrymonster/web_console/internal/session"
	"sorrymonster/web_console/internal/webui"
)

const serviceName = "console"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)
	version.ComponentName = serviceName

	port := config.GetEnv("PORT", "3000")
	upstream := config.GetEnv("API_UPSTREAM_URL", "http://sorry_api:8083")

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	healthChecker.AddCheck("apology_api", monitoring.HTTPServiceHealthCheck("apology", upstream+"/health"))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"API_UPSTREAM_URL": upstream,
	}))

	upstreamRequests, upstreamDuration := metricsCollector.CreateUpstreamMetrics()

	// No client timeout: the transport's dial and handshake limits are the only ones applied.
	httpClient := clients.NewHTTPClient(0)

	generator := generation.NewClient(upstream,
		generation.WithHTTPClient(httpClient),
		generation.WithMetrics(upstreamRequests, upstreamDuration),
	)

	tracker := session.NewTracker(
		config.GetEnvDuration("SESSION_TTL", time.Hour),
		5*time.Minute,
	)
	defer tracker.Stop()
	tracker.Observe(metricsCollector.NewGauge("sessions", "Browser sessions tracked by the console", nil).WithLabelValues())

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)

	ui := webui.NewServer(generator, tracker, logger,
		webui.WithMetrics(metricsCollector.CreateGenerationMetrics()),
		webui.WithSecureCookies(config.GetEnv("ENVIRONMENT", "development") == "production"),
	)
	ui.Register(app)

	apiProxy := proxy.New(upstream, "/api", httpClient, logger)
	app.Any("/api/*path", apiProxy.Handle)

	logger.WithFields(logging.Fields{
		"upstream": upstream,
		"version":  version.String(),
	}).Info("Console configured")

	serverConfig := server.DefaultConfig(serviceName, port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
