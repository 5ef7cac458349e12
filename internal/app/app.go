package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/repository/sqlite"
	"textwatch/internal/route"
	"textwatch/internal/service/ai"
	"textwatch/internal/service/capture"
	"textwatch/internal/service/capture/device"
	"textwatch/internal/service/linefilter"
	"textwatch/internal/service/mqtt"
	"textwatch/internal/service/ocr"
	"textwatch/internal/service/redis"
	"textwatch/internal/service/session"
	"textwatch/internal/service/storage"
	"textwatch/internal/service/webhook"
	"textwatch/internal/service/websocket"
)

// liveSource is a capture source fed by its own goroutine.
type liveSource interface {
	capture.Source
	Run(ctx context.Context) error
}

type App struct {
	config    *config.Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	db        *sqlite.DB
	hub       *websocket.HubService
	recorder  *storage.Recorder
	publisher *mqtt.Publisher
	redis     *redis.Publisher
	source    liveSource
	engine    *ai.DNNEngine
	tesseract *ai.TesseractRecognizer
	session   *session.Session
	handler   http.Handler
}

// NewApp builds every service from the environment. Resources opened before
// a failure are released.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg)
	a := &App{config: cfg, logger: log, metrics: metrics.New()}

	if err := a.init(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.config

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	passRepo := sqlite.NewPassRepository(db)
	regionRepo := sqlite.NewRegionRepository(db)

	a.hub = websocket.NewHubService(a.logger)
	a.recorder = storage.NewRecorder(cfg, a.logger, a.metrics, passRepo, regionRepo)

	sinks := []session.Sink{a.hub}
	if cfg.MQTTBroker != "" {
		pub, err := mqtt.Connect(cfg, a.logger)
		if err != nil {
			// Overlay działa dalej bez MQTT
			a.logger.Warning("MQTT disabled: %v", err)
		} else {
			a.publisher = pub
			sinks = append(sinks, pub)
		}
	}

	if cfg.RedisAddress != "" {
		pub, err := redis.Connect(cfg, a.logger)
		if err != nil {
			a.logger.Warning("Redis disabled: %v", err)
		} else {
			a.redis = pub
			sinks = append(sinks, pub)
		}
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, webhook.New(cfg, a.logger))
	}

	if cfg.CaptureSource == "udp" {
		a.source = device.NewUDPSource(cfg.CaptureUDPPort, a.logger)
	} else {
		a.source = device.NewVideoSource(cfg.CaptureSource, a.logger)
	}

	a.engine, err = ai.NewDNNEngine(cfg, a.logger)
	if err != nil {
		return err
	}
	var recognizer ocr.Recognizer = a.engine
	if cfg.Recognizer == "tesseract" {
		a.tesseract, err = ai.NewTesseractRecognizer(cfg.TesseractLanguage, a.logger)
		if err != nil {
			return err
		}
		recognizer = a.tesseract
	}

	pipeline := ocr.NewPipeline(a.engine, recognizer, PipelineOptions(cfg))

	filter, err := NewFilter(cfg)
	if err != nil {
		return err
	}

	a.session = session.New(session.Options{
		Source:         a.source,
		Engine:         pipeline,
		Filter:         filter,
		Sinks:          sinks,
		Recorder:       a.recorder,
		Metrics:        a.metrics,
		Logger:         a.logger,
		Interval:       cfg.SampleInterval,
		Downscale:      cfg.Downscale,
		PixelThreshold: cfg.PixelThreshold,
		Thresholds:     Thresholds(cfg),
	})

	a.handler = route.SetupRoutes(route.Deps{
		Config:     cfg,
		Logger:     a.logger,
		Metrics:    a.metrics,
		Hub:        a.hub,
		Session:    a.session,
		PassRepo:   passRepo,
		RegionRepo: regionRepo,
	})
	return nil
}

// Run starts the background services and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	start(a.hub.Run)
	start(a.recorder.Run)
	start(func(ctx context.Context) {
		if err := a.source.Run(ctx); err != nil {
			a.logger.Error("Capture source stopped: %v", err)
		}
	})
	start(a.session.Run)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Textwatch Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎥 Capture: %s\n", a.config.CaptureSource)
	fmt.Printf("🤖 Models: %s, %s (%s)\n", a.config.DetectModelPath, a.config.RecognizeModelPath, a.config.Recognizer)
	fmt.Printf("🗃️  Database: %s\n", a.config.DBPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		a.logger.Warning("HTTP shutdown: %v", serr)
	}

	cancel()
	wg.Wait()
	return err
}

// close releases resources in reverse order of creation.
func (a *App) close() {
	if a.tesseract != nil {
		a.tesseract.Close()
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database: %v", err)
		}
	}
	a.logger.Close()
}
