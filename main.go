package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	alarmapp "krpc-telemetry/internal/alarms/application"
	alarms "krpc-telemetry/internal/alarms/domain"
	alarmhttp "krpc-telemetry/internal/alarms/interfaces/http"
	alarmnotify "krpc-telemetry/internal/alarms/notify"
	apihttp "krpc-telemetry/internal/api/http"
	archivepostgres "krpc-telemetry/internal/archive/postgres"
	"krpc-telemetry/internal/auth"
	"krpc-telemetry/internal/eventing"
	"krpc-telemetry/internal/observability/metrics"
	strategyapp "krpc-telemetry/internal/strategy/application"
	telemapp "krpc-telemetry/internal/telemetry/application"
	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"
	"krpc-telemetry/internal/telemetry/infrastructure/krpc"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init()

	mission, err := strategyapp.LoadMissionConfig()
	if err != nil {
		logger.Fatalf("mission config error: %v", err)
	}
	samplers, err := mission.BuildSamplers()
	if err != nil {
		logger.Fatalf("sampler setup error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := krpc.NewClient(cfg.KRPCBaseURL, cfg.KRPCToken, logger)
	if err != nil {
		logger.Fatalf("krpc client error: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		logger.Fatalf("krpc connect error: %v", err)
	}
	defer client.Close()

	factory, err := krpc.NewFactory(client, cfg.DefaultRateHz)
	if err != nil {
		logger.Fatalf("krpc factory error: %v", err)
	}

	registry, err := telemapp.BuildRegistry(ctx, factory, samplers, telemetry.WithSettle(cfg.Settle))
	if err != nil {
		logger.Fatalf("stream setup error: %v", err)
	}

	bus := eventing.NewInMemoryBus()
	sampleEvent := eventing.EventTypeOf[events.SampleAccepted]()

	alarmBroker := alarmhttp.NewSSEBroker()
	rules, err := buildAlarmRules(mission.Alarms)
	if err != nil {
		logger.Fatalf("alarm rule error: %v", err)
	}
	if len(rules) > 0 {
		notifier := alarmnotify.NewMultiNotifier(
			alarmnotify.NewWebhookNotifier(cfg.AlarmWebhookURL, logger),
			alarmBroker,
		)
		alarmService, err := alarmapp.NewService(rules, notifier, logger)
		if err != nil {
			logger.Fatalf("alarm service error: %v", err)
		}
		bus.Subscribe(sampleEvent, alarmService.HandleSampleAccepted)
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		archive := archivepostgres.NewSampleRepository(db, archivepostgres.WithSession(cfg.SessionID))
		bus.Subscribe(sampleEvent, archive.HandleSampleAccepted)
	}

	sampleBroker := apihttp.NewSampleBroker()
	bus.Subscribe(sampleEvent, sampleBroker.HandleSampleAccepted)

	poller, err := telemapp.NewPoller(registry, samplers, bus, cfg.PollInterval, logger)
	if err != nil {
		logger.Fatalf("poller setup error: %v", err)
	}

	pollDone := make(chan error, 1)
	go func() {
		pollDone <- poller.Run(ctx)
	}()

	apiHandler, err := apihttp.NewHandler(poller, time.Now().UTC(), logger)
	if err != nil {
		logger.Fatalf("api setup error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/strategies", apiHandler)
	mux.Handle("/api/v1/strategies/", apiHandler)
	mux.Handle("/api/v1/snapshot", apiHandler)
	mux.Handle("/api/v1/samples/stream", sampleBroker)
	mux.Handle("/api/v1/alarms/stream", alarmBroker)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authMiddleware := auth.NewMiddleware(
		[]byte(cfg.JWTSecret),
		auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil),
	)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	if err := <-pollDone; err != nil {
		logger.Printf("poller stopped with error: %v", err)
	}
}

func buildAlarmRules(configs []strategyapp.AlarmRuleConfig) ([]alarms.Rule, error) {
	rules := make([]alarms.Rule, 0, len(configs))
	for _, rc := range configs {
		kind, err := telemetry.ParseKind(rc.Kind)
		if err != nil {
			return nil, err
		}
		enabled := true
		if rc.Enabled != nil {
			enabled = *rc.Enabled
		}
		rule := alarms.Rule{
			ID:        rc.ID,
			Name:      rc.Name,
			Kind:      kind,
			Operator:  alarms.Operator(rc.Operator),
			Threshold: rc.Threshold,
			Severity:  rc.Severity,
			Enabled:   enabled,
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

type config struct {
	KRPCBaseURL     string
	KRPCToken       string
	HTTPAddr        string
	DefaultRateHz   float64
	Settle          time.Duration
	PollInterval    time.Duration
	JWTSecret       string
	DatabaseURL     string
	SessionID       string
	AlarmWebhookURL string
}

func loadConfig() config {
	cfg := config{
		KRPCBaseURL:     getenvDefault("KRPC_BASE_URL", ""),
		KRPCToken:       getenvDefault("KRPC_TOKEN", ""),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		DefaultRateHz:   getenvFloatDefault("DEFAULT_RATE_HZ", 1.0),
		Settle:          getenvDuration("SETTLE_SECONDS", 2*time.Second),
		PollInterval:    getenvDuration("POLL_INTERVAL", time.Second),
		JWTSecret:       getenvDefault("API_JWT_SECRET", ""),
		DatabaseURL:     getenvDefault("DATABASE_URL", ""),
		SessionID:       getenvDefault("SESSION_ID", time.Now().UTC().Format("20060102T150405Z")),
		AlarmWebhookURL: getenvDefault("ALARM_WEBHOOK_URL", ""),
	}
	if cfg.KRPCBaseURL == "" {
		log.Fatal("KRPC_BASE_URL is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
