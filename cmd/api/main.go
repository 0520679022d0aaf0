package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/formflowhq/backend/internal/api"
	"github.com/formflowhq/backend/internal/cache"
	"github.com/formflowhq/backend/internal/config"
	"github.com/formflowhq/backend/internal/database"
	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/ocr"
	"github.com/formflowhq/backend/internal/queue"
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

	// Redis backs the task queue and the optional cache backend; the API
	// itself can limp along without it.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable", "error", err)
	}
	defer rdb.Close()

	extractor, caps, diskCache, err := buildExtraction(ctx, cfg, rdb)
	if err != nil {
		slog.Error("failed to build extraction pipeline", "error", err)
		os.Exit(1)
	}

	if diskCache != nil && cfg.Cache.MaxAge > 0 {
		go sweepLoop(ctx, diskCache, cfg.Cache.MaxAge)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.DataDir)
	if err != nil {
		slog.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	// Setup router
	router := api.NewRouter(db, rdb, cfg, api.Deps{
		Extractor: extractor,
		Caps:      caps,
		Blobs:     blobs,
		Queue:     queueClient,
	})
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// buildExtraction wires the OCR engine, the native PDF extractors, and the
// result cache into one extraction service. The *cache.Disk return is nil
// when the disk backend is not in use.
func buildExtraction(ctx context.Context, cfg *config.Config, rdb *redis.Client) (*extraction.Service, extraction.Capabilities, *cache.Disk, error) {
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
	var disk *cache.Disk
	if cfg.Extraction.UseCache {
		switch cfg.Cache.Backend {
		case "redis":
			store = cache.NewRedis(rdb, cfg.Cache.TTL)
		default:
			d, err := cache.NewDisk(cfg.Cache.Dir, cfg.Cache.MaxAge)
			if err != nil {
				return nil, extraction.Capabilities{}, nil, err
			}
			store = d
			disk = d
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
	return svc, caps, disk, nil
}

func sweepLoop(ctx context.Context, d *cache.Disk, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := d.Sweep(ctx); err != nil {
				slog.Warn("cache sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("cache sweep removed entries", "count", n)
			}
		}
	}
}
