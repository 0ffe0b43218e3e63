package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// Pushes one fake assigned lead to the configured Kommo account.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.InitLogger(config.LogConfig{Level: "debug", Format: "console"}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.Token, cfg.Kommo.PipelineID, cfg.Kommo.Timeout)
	if !client.Configured() {
		zap.L().Fatal("LEADS_KOMMO_BASE_URL and LEADS_KOMMO_TOKEN must be set")
	}

	payload := queue.LeadAssignedPayload{
		RunID:      "smoke-test",
		LeadID:     time.Now().Unix(),
		LeadName:   "Joao Teste da Silva",
		LeadEmail:  "joao.teste@email.com",
		LeadPhone:  "+556199767638",
		LeadCity:   "Brasilia",
		Source:     "bulk_upload",
		AgentName:  "smoke",
		AgentEmail: "smoke@example.com",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := client.SyncAssignedLead(ctx, payload)
	if err != nil {
		zap.L().Fatal("kommo sync failed", zap.Error(err))
	}
	zap.L().Info("kommo lead created", zap.Int("kommo_lead_id", id))
}
