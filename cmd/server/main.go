// Command server wires the identity service together and runs the HTTP
// API. Business logic lives in the internal packages; this file only
// selects implementations from configuration and manages lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"sigil/internal/audit"
	auditkafka "sigil/internal/audit/kafka"
	auditmemory "sigil/internal/audit/store/memory"
	auditpostgres "sigil/internal/audit/store/postgres"
	"sigil/internal/identity/hasher"
	"sigil/internal/identity/service"
	accountmemory "sigil/internal/identity/store/memory"
	accountpostgres "sigil/internal/identity/store/postgres"
	"sigil/internal/jwttoken"
	"sigil/internal/lockout"
	lockoutmemory "sigil/internal/lockout/store/memory"
	lockoutredis "sigil/internal/lockout/store/redis"
	"sigil/internal/platform/config"
	"sigil/internal/platform/httpserver"
	"sigil/internal/platform/logger"
	"sigil/internal/platform/metrics"
	"sigil/internal/platform/redis"
	httptransport "sigil/internal/transport/http"
)

const auditMirrorBuffer = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Storage: PostgreSQL when configured, in-memory otherwise.
	var (
		accounts   service.AccountStore
		auditStore audit.Store
		db         *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			return
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			return
		}
		accounts = accountpostgres.New(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres storage")
	} else {
		accounts = accountmemory.New()
		auditStore = auditmemory.New()
		log.Warn("no database configured, using in-memory storage")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		return
	}
	var lockoutStore lockout.Store
	if redisClient != nil {
		defer redisClient.Close()
		lockoutStore = lockoutredis.New(redisClient.Client)
		log.Info("using redis lockout store")
	} else {
		lockoutStore = lockoutmemory.New()
	}

	group, groupCtx := errgroup.WithContext(ctx)

	recorderOpts := []audit.RecorderOption{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := auditkafka.NewPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			return
		}
		defer publisher.Close()

		mirror := make(chan audit.Entry, auditMirrorBuffer)
		recorderOpts = append(recorderOpts, audit.WithMirror(mirror, m.AuditMirrorDrop.Inc))
		group.Go(func() error {
			publisher.Run(groupCtx, mirror)
			return nil
		})
		log.Info("mirroring audit entries to kafka", "topic", cfg.AuditTopic)
	}
	recorder := audit.NewRecorder(auditStore, recorderOpts...)

	identitySvc := service.New(
		accounts,
		hasher.NewBcrypt(cfg.BcryptCost),
		recorder,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenLifetime)
	throttle := lockout.New(lockoutStore, cfg.Lockout, lockout.WithMetrics(m))

	health := map[string]httptransport.HealthChecker{}
	if db != nil {
		health["database"] = dbHealth{db}
	}
	if redisClient != nil {
		health["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(identitySvc, tokens, throttle, log),
		Accounts: httptransport.NewAccountHandler(identitySvc, jwttoken.NewMiddlewareAdapter(tokens), log),
		Logger:   log,
		Health:   health,
	})

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("starting sigil", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		return
	}
	log.Info("shutdown complete")
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
