package worker

import (
	"context"
	"fmt"

	"salesclutch/internal/config"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Processor handles one queued call end to end. Implemented by the calls
// processing service.
type Processor interface {
	Process(ctx context.Context, callID, workspaceID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor Processor
	log       *logger.Logger
}

func NewWorker(cfg *config.Config, processor Processor, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.AsynqConcurrency
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
		log:       log,
	}
	w.mux.HandleFunc(TaskCallProcess, w.handleCallProcess)

	return w, nil
}

func (w *Worker) handleCallProcess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCallProcessPayload(task)
	if err != nil {
		return fmt.Errorf("malformed call process payload: %w", err)
	}

	callID, err := uuid.Parse(payload.CallID)
	if err != nil {
		return fmt.Errorf("invalid call id %q: %w", payload.CallID, err)
	}
	workspaceID, err := uuid.Parse(payload.WorkspaceID)
	if err != nil {
		return fmt.Errorf("invalid workspace id %q: %w", payload.WorkspaceID, err)
	}

	if err := w.processor.Process(ctx, callID, workspaceID); err != nil {
		w.log.Error("call processing failed", "call_id", callID, "error", err)
		return err
	}
	return nil
}

// Run blocks serving tasks until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
