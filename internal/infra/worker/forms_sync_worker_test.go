package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type countingIngester struct {
	calls atomic.Int32
	err   error
}

func (c *countingIngester) Execute(context.Context, entity.LeadSource) (*usecase.RunSummary, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &usecase.RunSummary{RunID: "r", Created: 1}, nil
}

type nopSource struct{}

func (nopSource) Kind() entity.Source                           { return entity.SourceExternalAPI }
func (nopSource) Read(context.Context, entity.RecordSink) error { return nil }

func TestFormsSyncWorker_RunsImmediatelyAndOnTicks(t *testing.T) {
	ing := &countingIngester{}
	w := NewFormsSyncWorker(ing, nopSource{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return ing.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestFormsSyncWorker_KeepsRunningAfterAbort(t *testing.T) {
	ing := &countingIngester{err: &usecase.TechnicalError{Code: usecase.CodeSourceUnauthorized, Err: errors.New("401")}}
	w := NewFormsSyncWorker(ing, nopSource{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	assert.Eventually(t, func() bool { return ing.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
