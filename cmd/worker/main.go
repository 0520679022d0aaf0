package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/formflowhq/backend/internal/cache"
	"github.com/formflowhq/backend/internal/config"
	"github.com/formflowhq/backend/internal/database"
	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/jobs"
	"github.com/formflowhq/backend/internal/ocr"
	"github.com/formflowhq/backend/internal/queue"
	"github.com/formflowhq/backend/internal/queue/workers"
	"github.com/formflowhq/backend/internal/storage"
	"github.com/formflowhq/backend/pkg/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	extractor, caps, err := buildExtraction(ctx, cfg, rdb)
	if err != nil {
		slog.Error("failed to build extraction pipeline", "error", err)
		os.Exit(1)
	}
	slog.Info("extraction capabilities",
		"native_a", caps.NativeA,
		"native_b", caps.NativeB,
		"ocr", caps.OCR,
		"preprocessing", caps.Preprocessing)

	blobs, err := storage.NewLocalStore(cfg.Storage.DataDir)
	if err != nil {
		slog.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	documentWorker := workers.NewDocumentWorker(jobs.NewService(db), blobs, extractor)
	registry.Register(queue.TypeDocumentExtract, asynq.HandlerFunc(documentWorker.ProcessTask))

	slog.Info("starting worker server")
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker server error", "error", err)
		os.Exit(1)
	}
}

// buildExtraction mirrors the API server wiring so queued jobs run through
// the same pipeline that synchronous requests do.
func buildExtraction(ctx context.Context, cfg *config.Config, rdb *redis.Client) (*extraction.Service, extraction.Capabilities, error) {
	var engine ocr.Engine
	switch cfg.OCR.Engine {
	case "cgo":
		eng, err := ocr.NewGosseract(cfg.OCR.Languages)
		if err != nil {
			slog.Warn("in-process OCR unavailable, using CLI engine", "error", err)
			engine = ocr.NewTesseract(cfg.OCR.TesseractBin, cfg.OCR.Languages)
		} else {
			engine = eng
		}
	default:
		engine = ocr.NewTesseract(cfg.OCR.TesseractBin, cfg.OCR.Languages)
	}

	ocrExtractor := ocr.New(ocr.Config{
		PdftoppmBin: cfg.OCR.PdftoppmBin,
		HighQuality: cfg.Extraction.HighQuality,
		DPIHigh:     cfg.OCR.DPIHigh,
		DPIStandard: cfg.OCR.DPIStandard,
		Preprocess:  cfg.OCR.Preprocess,
	}, engine)

	caps := extraction.DetectCapabilities(ctx, ocrExtractor, cfg.OCR.Preprocess)

	var store extraction.CacheStore
	if cfg.Extraction.UseCache {
		switch cfg.Cache.Backend {
		case "redis":
			store = cache.NewRedis(rdb, cfg.Cache.TTL)
		default:
			d, err := cache.NewDisk(cfg.Cache.Dir, cfg.Cache.MaxAge)
			if err != nil {
				return nil, extraction.Capabilities{}, err
			}
			store = d
		}
	}

	svc := extraction.New(extraction.Config{
		UseCache:        cfg.Extraction.UseCache,
		HighQuality:     cfg.Extraction.HighQuality,
		OCRQualityCheck: cfg.Extraction.OCRQualityCheck,
		Concurrency:     cfg.Extraction.Concurrency,
		DocTimeout:      cfg.Extraction.DocTimeout,
	}, extraction.Deps{
		NativeA: textextract.Structural{},
		NativeB: textextract.Layout{},
		OCR:     ocrExtractor,
		Cache:   store,
		Caps:    caps,
	})
	return svc, caps, nil
}
