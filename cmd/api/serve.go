package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := handlers.NewRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute)

	checks := map[string]handlers.Pinger{
		"postgres": handlers.PingFunc(a.db.PingContext),
		"redis":    a.runs,
		"rabbitmq": nil,
	}
	if a.rabbit != nil {
		checks["rabbitmq"] = handlers.PingFunc(func(context.Context) error {
			if a.rabbit.Conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		})
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Leads: handlers.NewLeadHandler(
			a.ingest,
			a.leads,
			usecase.NewSetLeadStatusUseCase(a.leads),
			a.formsSource,
			cfg.LeadForms.PageIDs,
			cfg.Upload.MaxBytes,
		),
		Runs:        handlers.NewRunHandler(a.runs),
		Health:      handlers.NewHealthHandler(checks),
		Limiter:     limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		limiter.Run(ctx)
		return nil
	})

	if a.rabbit != nil {
		w := assignmentWorker(a.rabbit)
		g.Go(func() error {
			consumeAssignments(ctx, w)
			return nil
		})
	}

	if cfg.LeadForms.SyncInterval > 0 {
		sync := worker.NewFormsSyncWorker(a.ingest, a.formsSource(cfg.LeadForms.PageIDs), cfg.LeadForms.SyncInterval)
		g.Go(func() error {
			sync.Start(ctx)
			return nil
		})
	}

	return g.Wait()
}

// consumeAssignments runs the assignment worker until it stops. Losing the
// broker only stops assignment notifications; the API keeps serving.
func consumeAssignments(ctx context.Context, w *queue.Worker) {
	if err := w.Start(ctx, queue.QueueName); err != nil {
		zap.L().Error("assignment worker stopped", zap.Error(err))
	}
}

// assignmentWorker consumes lead assigned events. Kommo and mail are only
// attached when configured.
func assignmentWorker(rabbit *queue.RabbitMQ) *queue.Worker {
	var crm queue.CRMClient
	if k := kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.Token, cfg.Kommo.PipelineID, cfg.Kommo.Timeout); k.Configured() {
		crm = k
	} else {
		zap.L().Warn("kommo not configured, assigned leads will not reach the crm")
	}

	var notifier queue.AgentNotifier
	if m := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From); m.Configured() {
		notifier = m
	}

	w := queue.NewWorker(rabbit.Ch, crm, notifier)
	w.OnIntegrationError = middleware.RecordIntegrationError
	return w
}
