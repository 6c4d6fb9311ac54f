package main

import (
	"context"
	"strings"
	"time"

	"sorrymonster/api_apology/internal/engine"
	"sorrymonster/api_apology/internal/handlers"
	"sorrymonster/api_apology/internal/ratelimit"
	"sorrymonster/pkg/clients"
	"sorrymonster/pkg/config"
	"sorrymonster/pkg/llm"
	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/monitoring"
	"sorrymonster/pkg/redis"
	"sorrymonster/pkg/server"
	"sorrymonster/pkg/version"
)

const serviceName = "apology"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)
	version.ComponentName = serviceName

	port := config.GetEnv("PORT", "8083")

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	llmConfig := llm.LoadConfig()
	provider, err := buildProvider(llmConfig)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure LLM provider")
	}

	breakerMetrics := clients.NewCircuitBreakerMetrics(metricsCollector.Registry())
	breaker := clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name:          "llm",
		Timeout:       config.GetEnvDuration("LLM_BREAKER_TIMEOUT", 30*time.Second),
		Logger:        logger,
		OnStateChange: breakerMetrics.RecordTransition,
	})

	gen := engine.New(
		llm.WithCircuitBreaker(provider, breaker),
		engine.WithMaxParallel(config.GetEnvInt("LLM_MAX_PARALLEL", engine.DefaultMaxParallel)),
		engine.WithLogger(logger),
	)

	limitConfig := ratelimit.Config{
		AnonLimit:   config.GetEnvInt("RATE_LIMIT_ANON", ratelimit.DefaultAnonLimit),
		AuthedLimit: config.GetEnvInt("RATE_LIMIT_AUTHED", ratelimit.DefaultAuthedLimit),
		Window:      config.GetEnvDuration("RATE_LIMIT_WINDOW", ratelimit.DefaultWindow),
	}
	var limiter ratelimit.Limiter
	if redisURL := config.GetEnv("REDIS_URL", ""); redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := redis.NewClientFromURL(ctx, redisURL)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()

		limiter = ratelimit.NewRedisLimiter(client, limitConfig)
		healthChecker.AddCheck("redis", monitoring.PingHealthCheck("redis", redis.Pinger{Client: client}, true))
	} else {
		logger.Warn("REDIS_URL not set, using in-memory rate limiter")
		memLimiter := ratelimit.NewMemoryLimiter(limitConfig, 5*time.Minute)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	healthChecker.AddCheck("llm_breaker", monitoring.CircuitBreakerHealthCheck(breaker))

	requiredConfig := map[string]string{"LLM_MODEL": llmConfig.Model}
	if strings.EqualFold(llmConfig.Provider, "openai") {
		requiredConfig["LLM_API_KEY"] = llmConfig.APIKey
	}
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(requiredConfig))

	decisions, backendErrors := metricsCollector.CreateRateLimitMetrics()
	handlerMetrics := &handlers.Metrics{GenerationMetrics: metricsCollector.CreateGenerationMetrics()}

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector,
		config.GetEnvList("CORS_ALLOWED_ORIGINS", nil)...)

	app.GET("/", handlers.Root(healthChecker))

	apologyHandler := handlers.NewApologyHandler(gen, logger, handlerMetrics,
		config.GetEnvDuration("REQUEST_TIMEOUT", handlers.DefaultRequestTimeout))

	v1 := app.Group("/v1")
	v1.Use(ratelimit.Middleware(limiter, logger, &ratelimit.Metrics{
		Decisions:     decisions,
		BackendErrors: backendErrors,
	}))
	apologyHandler.Register(v1)

	logger.WithFields(logging.Fields{
		"provider":     llmConfig.Provider,
		"model":        llmConfig.Model,
		"max_parallel": config.GetEnvInt("LLM_MAX_PARALLEL", engine.DefaultMaxParallel),
		"version":      version.String(),
	}).Info("Apology service configured")

	serverConfig := server.DefaultConfig(serviceName, port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}

// buildProvider wires LLM_PROVIDER=stub to the canned responder so the
// service runs without model credentials.
func buildProvider(cfg llm.Config) (llm.Provider, error) {
	if strings.EqualFold(cfg.Provider, "stub") {
		return &llm.StubProvider{Respond: engine.CannedResponder()}, nil
	}
	return llm.NewProvider(cfg)
}
