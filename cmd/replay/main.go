// Command replay runs the OCR pipeline and line filter over a directory of
// still images, in name order, and prints every accepted line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"textwatch/internal/app"
	"textwatch/internal/config"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/repository/sqlite"
	"textwatch/internal/service/ai"
	"textwatch/internal/service/capture/device"
	"textwatch/internal/service/ocr"
	"textwatch/internal/service/session"
	"textwatch/internal/service/storage"
)

func main() {
	dir := flag.String("dir", "frames", "Directory containing frames")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	record := flag.Bool("record", false, "Store passes in the database")
	flag.Parse()

	cfg, err := config.LoadFile(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lg := logger.NewQuiet(cfg.LogDirectory)
	defer lg.Close()

	source, err := device.NewDirectorySource(*dir)
	if err != nil {
		log.Fatalf("Failed to read frames directory: %v", err)
	}
	if source.Len() == 0 {
		fmt.Println("No images found to replay")
		return
	}

	engine, err := ai.NewDNNEngine(cfg, lg)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}
	defer engine.Close()

	var recognizer ocr.Recognizer = engine
	if cfg.Recognizer == "tesseract" {
		tess, err := ai.NewTesseractRecognizer(cfg.TesseractLanguage, lg)
		if err != nil {
			log.Fatalf("Failed to start tesseract: %v", err)
		}
		defer tess.Close()
		recognizer = tess
	}

	filter, err := app.NewFilter(cfg)
	if err != nil {
		log.Fatalf("Invalid dedup mode: %v", err)
	}

	m := metrics.New()
	opts := session.Options{
		Source:  source,
		Engine:  ocr.NewPipeline(engine, recognizer, app.PipelineOptions(cfg)),
		Filter:  filter,
		Metrics: m,
		Logger:  lg,
	}

	var recorder *storage.Recorder
	if *record {
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		recorder = storage.NewRecorder(cfg, lg, m, sqlite.NewPassRepository(db), sqlite.NewRegionRepository(db))
		opts.Recorder = recorder
	}

	sess := session.New(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Replaying %d frames from %s (session %s)\n", source.Len(), *dir, sess.ID())

	failed := 0
	for ctx.Err() == nil {
		frame, path, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", path, err)
			failed++
			continue
		}

		line, ok, err := sess.ProcessFrame(ctx, frame)
		if err != nil {
			log.Printf("⚠️  Pass failed on %s: %v", path, err)
			failed++
			continue
		}
		if ok {
			fmt.Printf("%s\t%s\n", filepath.Base(path), line)
		}
	}

	if recorder != nil {
		recorder.Flush()
	}

	fmt.Printf("✅ %d passes, %d lines, %d suppressed, %d failed\n",
		m.Passes.Load(), m.LinesEmitted.Load(), m.LinesSuppressed.Load(), failed)
}
