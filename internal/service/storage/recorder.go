package storage

import (
	"context"
	"sync"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/model"
	"textwatch/internal/repository"
)

// Recorder buffers pass results in memory and periodically flushes them to the database.
type Recorder struct {
	passes        []dto.BufferedPass
	limit         int
	flushInterval time.Duration
	mu            sync.Mutex
	logger        *logger.Logger
	metrics       *metrics.Metrics
	passRepo      repository.PassRepository
	regionRepo    repository.RegionRepository
}

// NewRecorder creates a Recorder using the buffer limit and flush interval from config.
func NewRecorder(config *config.Config, logger *logger.Logger, metrics *metrics.Metrics, passRepo repository.PassRepository, regionRepo repository.RegionRepository) *Recorder {
	return &Recorder{
		passes:        make([]dto.BufferedPass, 0, config.RecordBufferLimit),
		limit:         config.RecordBufferLimit,
		flushInterval: config.RecordFlushInterval,
		logger:        logger,
		metrics:       metrics,
		passRepo:      passRepo,
		regionRepo:    regionRepo,
	}
}

// Run flushes on every interval until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Flush()
			return
		case <-ticker.C:
			r.Flush()
		}
	}
}

// Record buffers a pass. A full buffer is flushed right away.
func (r *Recorder) Record(pass dto.BufferedPass) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.passes = append(r.passes, pass)
	if r.limit > 0 && len(r.passes) >= r.limit {
		r.flushLocked()
	}
}

// Pending returns the number of buffered passes.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.passes)
}

// Flush writes buffered passes and their regions to the database and resets the buffer.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Recorder) flushLocked() {
	if len(r.passes) == 0 {
		return
	}

	savedCount := 0
	for _, pass := range r.passes {
		dbPass := &model.Pass{
			SessionID:   pass.SessionID,
			Timestamp:   pass.Timestamp,
			RawText:     pass.RawText,
			Text:        pass.Text,
			Emitted:     pass.Emitted,
			DurationMs:  pass.Duration.Milliseconds(),
			RegionCount: len(pass.Regions),
		}

		passID, err := r.passRepo.Insert(dbPass)
		if err != nil {
			r.logger.Error("Error saving pass to database: %v", err)
			if r.metrics != nil {
				r.metrics.RecordErrors.Add(1)
			}
			continue
		}

		if r.regionRepo != nil && len(pass.Regions) > 0 {
			dbRegions := make([]model.Region, 0, len(pass.Regions))
			for _, reg := range pass.Regions {
				dbRegions = append(dbRegions, model.Region{
					PassID:     passID,
					X1:         reg.X1,
					Y1:         reg.Y1,
					X2:         reg.X2,
					Y2:         reg.Y2,
					Score:      reg.Score,
					Text:       reg.Text,
					Confidence: reg.Confidence,
				})
			}
			if err := r.regionRepo.InsertBatch(dbRegions); err != nil {
				r.logger.Error("Error saving regions to database: %v", err)
			}
		}

		savedCount++
	}

	if r.metrics != nil {
		r.metrics.PassesRecorded.Add(uint64(savedCount))
	}
	r.logger.Info("💾 Flushed %d passes to database", savedCount)
	r.passes = r.passes[:0]
}
