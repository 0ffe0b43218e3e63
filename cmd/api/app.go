package main

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/leadforms"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// app holds the collaborators shared by every command.
type app struct {
	db     *sql.DB
	redis  *redis.Client
	rabbit *queue.RabbitMQ

	leads  *database.LeadRepository
	runs   *cache.RunStore
	ingest *usecase.IngestLeadsUseCase
	forms  *leadforms.Client
}

// newApp connects to Postgres (required), Redis and RabbitMQ (both
// optional: without them runs are not recorded and no assignment events
// are published).
func newApp(ctx context.Context) (*app, error) {
	db, err := database.NewDBConnection(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}

	a.leads = database.NewLeadRepository(db, cfg.Database.QueryTimeout)
	agents := database.NewAgentRepository(db, cfg.Database.QueryTimeout)

	var recorder usecase.RunRecorder
	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.runs = cache.NewRunStore(a.redis, cfg.Redis.RunTTL)
	if err := a.runs.Ping(ctx); err != nil {
		zap.L().Warn("redis unavailable, ingestion runs will not be recorded", zap.Error(err))
	} else {
		recorder = a.runs
	}

	var publisher usecase.AssignmentPublisher
	if rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL); err != nil {
		zap.L().Warn("rabbitmq unavailable, assignment events disabled", zap.Error(err))
	} else {
		a.rabbit = rabbit
		publisher = queue.NewProducer(rabbit.Ch)
	}

	a.ingest = usecase.NewIngestLeadsUseCase(
		a.leads,
		agents,
		cfg.Assignment.Role,
		publisher,
		recorder,
		middleware.IngestionObserver{},
	)

	a.forms = leadforms.NewClient(leadforms.Config{
		BaseURL:           cfg.LeadForms.BaseURL,
		APIVersion:        cfg.LeadForms.APIVersion,
		AccessToken:       cfg.LeadForms.AccessToken,
		RequestTimeout:    cfg.LeadForms.RequestTimeout,
		RequestsPerSecond: cfg.LeadForms.RequestsPerSecond,
	})

	return a, nil
}

func (a *app) formsSource(pageIDs []string) entity.LeadSource {
	src := leadforms.NewSource(a.forms, pageIDs)
	src.OnTruncated = middleware.RecordTruncatedListing
	return src
}

func (a *app) Close() {
	if a.rabbit != nil {
		a.rabbit.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}
