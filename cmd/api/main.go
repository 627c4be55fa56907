package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nadfk/pweb-reactjs-p01-2025/internal/auth"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/catalog"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/config"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/httpx"
	kafkax "github.com/nadfk/pweb-reactjs-p01-2025/internal/kafka"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/postgres"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/redisx"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/transactions"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, transactions.TopicTransactionPlaced, 1024)
	prod.Start(ctx)

	// Repos & services
	catalogRepo := &catalog.Repo{DB: db}
	tokens := &auth.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}
	authSvc := &auth.Service{Users: &auth.Repo{DB: db}, Tokens: tokens}
	txSvc := &transactions.Service{
		Books:  catalogRepo,
		Orders: &transactions.Repo{DB: db},
	}

	router := httpx.NewRouter()
	(&httpx.AuthHandler{Service: authSvc}).Register(router)
	(&httpx.CatalogHandler{Repo: catalogRepo, Tokens: tokens}).Register(router)
	(&httpx.TransactionsHandler{
		Service:  txSvc,
		Tokens:   tokens,
		Producer: prod,
		Redis:    rdb,
		Name:     cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Warn().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
