package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andriipushkar/replenishment/internal/alerts"
	"github.com/andriipushkar/replenishment/internal/automation/clients"
	automationconfig "github.com/andriipushkar/replenishment/internal/automation/config"
	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/executor"
	"github.com/andriipushkar/replenishment/internal/automation/memstore"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/automation/ruleengine"
	"github.com/andriipushkar/replenishment/internal/automation/scheduler"
	"github.com/andriipushkar/replenishment/internal/automation/supplier"
	"github.com/andriipushkar/replenishment/internal/cache"
	"github.com/andriipushkar/replenishment/internal/eventbus"
	"github.com/andriipushkar/replenishment/internal/health"
	"github.com/andriipushkar/replenishment/internal/logger"
	"github.com/andriipushkar/replenishment/internal/metrics"
	"github.com/andriipushkar/replenishment/internal/ratelimit"
	"github.com/andriipushkar/replenishment/internal/server"
	"github.com/andriipushkar/replenishment/internal/tenant"
	"github.com/andriipushkar/replenishment/internal/tracing"
	"github.com/andriipushkar/replenishment/internal/webhooks"
)

// webhookDeliveryWorkers sizes the outbound webhook delivery pool.
const webhookDeliveryWorkers = 4

func main() {
	logger.InitFromEnv()
	log := logger.WithService("replenishment")

	log.Info().Msg("Starting replenishment engine...")

	cfg, err := automationconfig.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Redis backs the supplier cost cache (spec.md §4.4); it is optional,
	// the cache degrades to its in-process sync.Map fallback without it.
	var redisCache *cache.RedisCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisCache, err = cache.NewRedisCache(redisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("Redis connection failed, supplier cost cache running without Redis")
		} else {
			log.Info().Msg("Redis cost cache connected")
		}
	}

	// Optional OpenTelemetry tracing.
	var tracer *tracing.Tracer
	if otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otlpEndpoint != "" {
		tracingConfig := tracing.DefaultConfig()
		tracingConfig.OTLPEndpoint = otlpEndpoint
		tracingConfig.ServiceName = "replenishment-engine"
		tracingConfig.Environment = os.Getenv("ENVIRONMENT")
		if tracingConfig.Environment == "" {
			tracingConfig.Environment = "development"
		}
		if sampleRate := os.Getenv("OTEL_SAMPLE_RATE"); sampleRate != "" {
			if rate, err := strconv.ParseFloat(sampleRate, 64); err == nil {
				tracingConfig.SampleRate = rate
			}
		}
		tracer, err = tracing.New(tracingConfig)
		if err != nil {
			log.Warn().Err(err).Msg("OpenTelemetry tracing initialization failed")
		} else {
			log.Info().Str("endpoint", otlpEndpoint).Msg("OpenTelemetry tracing initialized")
		}
	}

	// External service base URLs; the core never touches the databases or
	// queues behind them directly, only these HTTP ports (spec.md §6).
	inventoryClient := clients.NewInventoryClient(mustEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"))
	productClient := clients.NewProductClient(mustEnv("CATALOG_SERVICE_URL", "http://localhost:8082"))
	supplierClient := clients.NewSupplierClient(mustEnv("SUPPLIER_SERVICE_URL", "http://localhost:8083"))
	poClient := clients.NewPurchaseOrderClient(mustEnv("PURCHASING_SERVICE_URL", "http://localhost:8084"))
	forecastClient := clients.NewForecastClient(mustEnv("FORECAST_SERVICE_URL", "http://localhost:8085"))

	costCache := supplier.NewCostCache(redisCache)
	selector := supplier.NewSelector(supplierClient, costCache, ports.SystemClock{})

	ruleStore := memstore.NewRuleStore()
	execStore := memstore.NewExecutionStore()

	var eventPublisher eventbus.Publisher = &eventbus.NoOpPublisher{}
	events := eventbus.NewAdapter(eventPublisher)

	var alertPublisher alerts.AlertPublisher = alerts.NewLogPublisher()
	notify := alerts.NewNotificationAdapter(alertPublisher)

	// Outbound webhook delivery: every tenant-registered subscription is
	// notified, over its own circuit breaker, whenever the purchase
	// executor publishes a reorder or purchase-order event.
	webhookRepo := webhooks.NewInMemoryRepository()
	webhookService := webhooks.NewService(webhookRepo, webhookDeliveryWorkers)
	for _, eventType := range []webhooks.EventType{
		webhooks.EventPurchaseOrderCreated,
		webhooks.EventReorderExecuted,
		webhooks.EventReorderFailed,
	} {
		eventType := eventType
		events.Subscribe(string(eventType), func(ctx context.Context, payload any) {
			data, ok := payload.(map[string]any)
			if !ok {
				return
			}
			tenantID, _ := data["tenantId"].(string)
			if tenantID == "" {
				return
			}
			webhookService.TriggerAsync(tenantID, eventType, data)
		})
	}

	ids := domain.NewUUIDGenerator(rand.Reader)

	purchaseExecutor := executor.New(
		inventoryClient, productClient, selector, poClient, forecastClient,
		notify, events, execStore, ruleStore, ids, ports.SystemClock{},
	)

	engine := ruleengine.NewEngine(ruleStore, inventoryClient, forecastClient, ports.SystemClock{}, purchaseExecutor, nil)
	engine.BatchSize = cfg.BatchSize
	engine.MaxConcurrent = cfg.MaxConcurrent
	engine.BatchDelay = cfg.BatchDelay

	schedulerCfg := scheduler.Config{
		ScheduledTick:         cfg.ScheduledTick,
		ConditionTick:         cfg.ConditionTick,
		RetentionDays:         cfg.RetentionDays,
		CleanupExecutionsCron: cfg.CleanupExecutionsCron,
		ArchiveLogsCron:       cfg.ArchiveLogsCron,
		UpdateMetricsCron:     cfg.UpdateMetricsCron,
		HealthCheckCron:       cfg.HealthCheckCron,
	}
	// condition and schedule sources are nil: this deployment runs purely
	// on the scheduled tick, with no condition-based workflows or
	// AutomationSchedule store wired in yet.
	sched := scheduler.New(schedulerCfg, engine, execStore, ruleStore, nil, nil, ports.SystemClock{})

	healthChecker := health.New("1.0.0")
	healthChecker.Register("redis", health.RedisCacheChecker(redisCache))
	healthChecker.Register("memory", health.MemoryChecker(512))

	rlConfig := ratelimit.DefaultConfig()
	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			rlConfig.RequestsPerSecond = v
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			rlConfig.Burst = v
		}
	}
	rateLimiter := ratelimit.NewIPRateLimiter(rlConfig)
	defer rateLimiter.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthChecker.Handler())
	mux.HandleFunc("/health/live", health.LivenessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	// Per-tenant endpoints: POST /tenants/{id}/process lets an operator or
	// the outer platform's scheduler force a tenant's rule tick without
	// waiting for the next scheduled sweep; POST /tenants/{id}/webhooks
	// registers an outbound webhook subscription for the tenant.
	mux.HandleFunc("/tenants/", func(w http.ResponseWriter, r *http.Request) {
		tenantID, action, ok := parseTenantPath(r.URL.Path)
		if !ok || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		ctx := tenant.WithID(r.Context(), tenantID)

		switch action {
		case "process":
			result, err := engine.Process(ctx, tenantID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			log.Info().Str("tenant", tenantID).Int("triggered", result.TriggeredRules).
				Int("successful", result.SuccessfulExecutions).Msg("manual tick completed")
			w.WriteHeader(http.StatusOK)

		case "webhooks":
			var reg struct {
				URL         string              `json:"url"`
				Secret      string              `json:"secret"`
				Events      []webhooks.EventType `json:"events"`
				Description string              `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.URL == "" || len(reg.Events) == 0 {
				http.Error(w, "url and events are required", http.StatusBadRequest)
				return
			}
			webhook := &webhooks.Webhook{
				ID:          fmt.Sprintf("wh_%s_%d", tenantID, time.Now().UnixNano()),
				TenantID:    tenantID,
				URL:         reg.URL,
				Secret:      reg.Secret,
				Events:      reg.Events,
				Description: reg.Description,
				IsActive:    true,
			}
			if err := webhookService.CreateWebhook(ctx, webhook); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(webhook)

		default:
			http.NotFound(w, r)
		}
	})

	var wrappedMux http.Handler = mux
	wrappedMux = logger.Middleware(wrappedMux)
	wrappedMux = metrics.Middleware(wrappedMux)
	if tracer != nil {
		wrappedMux = tracer.Middleware(wrappedMux)
	}
	wrappedMux = rateLimiter.Middleware(wrappedMux)

	port := getEnvInt("PORT", 8080)
	srvCfg := server.DefaultConfig()
	srvCfg.Port = port
	httpServer := server.New(wrappedMux, srvCfg)

	httpServer.OnShutdown(func(ctx context.Context) error {
		sched.Stop()
		return nil
	})
	httpServer.OnShutdown(func(ctx context.Context) error {
		webhookService.Stop()
		return nil
	})
	if tracer != nil {
		httpServer.OnShutdown(func(ctx context.Context) error {
			return tracer.Shutdown(ctx)
		})
	}
	if redisCache != nil {
		httpServer.OnShutdown(func(ctx context.Context) error {
			return redisCache.Close()
		})
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	if err := sched.Start(schedulerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	// GracefulServer.ListenAndServe blocks until it catches SIGINT/SIGTERM,
	// then runs the registered OnShutdown hooks (including sched.Stop) and
	// returns.
	log.Info().Int("port", port).Msg("HTTP server starting")
	if err := httpServer.ListenAndServe(); err != nil {
		cancelScheduler()
		log.Fatal().Err(err).Msg("server failed")
	}
	cancelScheduler()

	log.Info().Msg("replenishment engine stopped gracefully")
}

func mustEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// parseTenantPath extracts ("acme", "process", true) from
// "/tenants/acme/process".
func parseTenantPath(path string) (tenantID, action string, ok bool) {
	const prefix = "/tenants/"
	if len(path) <= len(prefix) {
		return "", "", false
	}
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}
