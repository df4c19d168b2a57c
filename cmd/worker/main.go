package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesclutch/internal/adapters/storage"
	"salesclutch/internal/calls/analyzer"
	callsrepo "salesclutch/internal/calls/repository"
	callsservice "salesclutch/internal/calls/service"
	"salesclutch/internal/calls/transcriber"
	"salesclutch/internal/config"
	"salesclutch/internal/db"
	dealsrepo "salesclutch/internal/deals/repository"
	dealsservice "salesclutch/internal/deals/service"
	"salesclutch/internal/events"
	"salesclutch/internal/instructionset"
	"salesclutch/internal/worker"
	"salesclutch/platform/ai/gemini"
	"salesclutch/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	for attempt := 1; ; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			break
		}
		if attempt >= 5 || ctx.Err() != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		log.Warn("retrying database connection", "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	registry, err := instructionset.NewRegistry(cfg.InstructionSetsPath, log)
	if err != nil {
		log.Error("failed to load instruction sets", "error", err)
		panic("failed to load instruction sets: " + err.Error())
	}

	store, err := storage.NewMinioService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	trans, err := transcriber.New(ctx, cfg.GeminiAPIKey, cfg.TranscriptionModel, log)
	if err != nil {
		log.Error("failed to initialize transcriber", "error", err)
		panic("failed to initialize transcriber: " + err.Error())
	}

	callAnalyzer, err := analyzer.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, log)
	if err != nil {
		log.Error("failed to initialize analyzer", "error", err)
		panic("failed to initialize analyzer: " + err.Error())
	}

	machine := dealsservice.NewStageMachine(dealsrepo.New(pool), registry, eventBus, log)
	processor := callsservice.NewProcessor(
		callsrepo.New(pool),
		store,
		trans,
		callAnalyzer,
		registry,
		machine,
		eventBus,
		log,
	)

	w, err := worker.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}
	log.Info("worker stopped")
}
