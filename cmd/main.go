package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sony/gobreaker"

	"github.com/samandr77/microservices/backoffice/internal/alert"
	"github.com/samandr77/microservices/backoffice/internal/api"
	"github.com/samandr77/microservices/backoffice/internal/clients/gomail"
	"github.com/samandr77/microservices/backoffice/internal/clients/slack"
	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/internal/repository"
	"github.com/samandr77/microservices/backoffice/internal/service"
	"github.com/samandr77/microservices/backoffice/pkg/breaker"
	"github.com/samandr77/microservices/backoffice/pkg/broker"
	"github.com/samandr77/microservices/backoffice/pkg/config"
	"github.com/samandr77/microservices/backoffice/pkg/job"
	"github.com/samandr77/microservices/backoffice/pkg/logger"
	"github.com/samandr77/microservices/backoffice/pkg/metrics"
	"github.com/samandr77/microservices/backoffice/pkg/postgres"
	"github.com/samandr77/microservices/backoffice/pkg/security"
)

const (
	ReadTimeout     = 3 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New(".env")
	panicOnErr("load config", err)

	l, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	panicOnErr("create logger", err)

	err = postgres.UpMigrations(cfg.Postgres.DSN)
	panicOnErr("up migrations", err)

	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConn)
	panicOnErr("connect to postgres", err)
	defer pool.Close()

	repo := repository.New(pool)
	m := metrics.New()

	breakers := breaker.New(breaker.Settings{
		MinRequests:      cfg.Breaker.MinRequests,
		FailureRatio:     cfg.Breaker.FailureRatio,
		Interval:         cfg.Breaker.Interval,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
		Ignore: []error{
			entity.ErrAlreadyExists,
			entity.ErrInvalidArgument,
			entity.ErrInvalidCredentials,
		},
	}, func(name string, state gobreaker.State) {
		m.BreakerState.WithLabelValues(name).Set(float64(state))
	})

	var channel alert.Channel

	switch cfg.Alert.Provider {
	case config.AlertProviderEmail:
		channel = gomail.New(cfg.Alert.SMTP)
	default:
		channel = slack.New(cfg.Alert.Slack, cfg.Alert.Timeout)
	}

	notifier := alert.New(alert.Config{
		Channel:    cfg.Alert.Channel,
		DetailsURL: cfg.Alert.DetailsURL,
		Timeout:    cfg.Alert.Timeout,
	}, channel, breakers, m)

	producer := broker.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.InvoiceSubmittedTopic)
	defer producer.Close()

	s := service.New(service.Config{
		LimitPerUser:         cfg.Invoice.LimitPerUser,
		SerializeSubmissions: cfg.Invoice.SerializeSubmission,
	}, repo, notifier, producer, m)

	privateKey, err := security.ParsePrivateKey(cfg.JWT.PrivateKey)
	panicOnErr("parse jwt private key", err)

	authService := service.NewAuthService(repo, breakers, privateKey, cfg.JWT.Expiry)

	jobs := job.NewScheduler().
		Register("refresh spend metrics", cfg.Invoice.StatsInterval, s.RefreshSpendMetrics)
	jobs.Start(ctx)

	handler := api.NewHandler(s, authService, notifier)
	mw := api.NewMiddleware(authService)

	router := api.NewRouter(handler, mw, m.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("listen and serve: %s", err)
		}
	}()

	slog.InfoContext(ctx, "service started",
		"port", cfg.HTTP.Port,
		"alert_provider", cfg.Alert.Provider,
		"serialize_submissions", cfg.Invoice.SerializeSubmission,
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		sig := <-ch

		slog.InfoContext(ctx, "got OS signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, ShutdownTimeout)
		defer shutdownCancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "server shutdown", "error", err)
		}

		cancel()
	}()

	wg.Wait()
	jobs.Wait()
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}
