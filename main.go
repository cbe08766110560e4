package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	accountsrepo "erp-ledger/internal/accounts/infrastructure/postgres"
	"erp-ledger/internal/audit"
	"erp-ledger/internal/auth"
	eventskafka "erp-ledger/internal/events/kafka"
	fpapplication "erp-ledger/internal/fiscalperiod/application"
	fprepo "erp-ledger/internal/fiscalperiod/infrastructure/postgres"
	"erp-ledger/internal/ledger/application"
	ledgerrepo "erp-ledger/internal/ledger/infrastructure/postgres"
	ledgerinterfaces "erp-ledger/internal/ledger/interfaces"
	"erp-ledger/internal/observability/metrics"
	seqrepo "erp-ledger/internal/sequence/infrastructure/postgres"
	storage "erp-ledger/internal/storage/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := storage.EnsureSchema(ctx, db); err != nil {
			cancel()
			logger.Fatalf("schema error: %v", err)
		}
		cancel()
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	accountRepo := accountsrepo.NewAccountRepository(db)
	periodRepo := fprepo.NewPeriodRepository(db)
	sequencer := seqrepo.NewSequenceStore(db)
	entryStore := ledgerrepo.NewEntryStore(db)

	guard, err := fpapplication.NewGuard(periodRepo)
	if err != nil {
		logger.Fatalf("period guard error: %v", err)
	}

	policy := application.DefaultPolicy()
	if cfg.PolicyPath != "" {
		policy, err = application.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			logger.Fatalf("policy load error: %v", err)
		}
	}

	var publisher application.EventPublisher = ledgerinterfaces.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	service, err := application.NewPostingService(
		entryStore, accountRepo, guard, sequencer,
		publisher, policy, application.SystemClock{}, logger,
	)
	if err != nil {
		logger.Fatalf("posting service error: %v", err)
	}

	voucherHandler, err := ledgerinterfaces.NewVoucherHandler(service, auditRepo)
	if err != nil {
		logger.Fatalf("voucher handler error: %v", err)
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.Policy{}, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/journal-vouchers", voucherHandler)
	mux.Handle("/api/v1/journal-vouchers/", voucherHandler)
	mux.Handle("/api/v1/voucher-numbers/next", voucherHandler)
	mux.Handle("/api/v1/accounts/", voucherHandler)
	mux.Handle("/api/v1/reports/trial-balance", voucherHandler)
	mux.Handle("/api/v1/reports/trial-balance/", voucherHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string
	HTTPAddr       string
	JWTSecret      string
	PolicyPath     string
	KafkaBrokers   []string
	KafkaTopic     string
	MigrateOnStart bool
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		PolicyPath:     getenvDefault("LEDGER_POLICY_PATH", ""),
		KafkaTopic:     getenvDefault("KAFKA_TOPIC", "ledger.vouchers"),
		MigrateOnStart: getenvBoolDefault("MIGRATE_ON_START", true),
	}
	if brokers := getenvDefault("KAFKA_BROKERS", ""); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
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

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
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
