package runs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/detection"
	"github.com/shelfsight/backend/internal/evaluation"
	"github.com/shelfsight/backend/internal/metrics"
	"github.com/shelfsight/backend/internal/session"
	"github.com/shelfsight/backend/internal/storage/models"
	"github.com/shelfsight/backend/pkg/logger"
	"github.com/shelfsight/backend/pkg/utils"
)

const defaultFetchLimit = 50

// Store is the persistence sink for analysis runs.
type Store interface {
	InsertRun(run *models.AnalysisRun) error
	GetRuns(date, displayID string, limit int) ([]models.AnalysisRun, error)
}

// HistoryCache is an optional read-through cache over history queries.
type HistoryCache interface {
	GetRuns(ctx context.Context, filterHash string) ([]models.AnalysisRun, bool, error)
	SetRuns(ctx context.Context, filterHash string, runs []models.AnalysisRun) error
	InvalidateRuns(ctx context.Context) error
}

// Service runs one analysis end to end and owns idempotent persistence of
// the outcome.
type Service struct {
	store    Store
	cache    HistoryCache
	detector *detection.Detector
}

func NewService(store Store, cache HistoryCache, detector *detection.Detector) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		detector: detector,
	}
}

type AnalyzeRequest struct {
	Date      string
	DisplayID string
	Image     []byte
	MimeType  string
	Items     []catalog.Item
	ImageURL  string
}

// Outcome carries everything the caller displays: the run (always present,
// even when persistence failed) plus the persistence verdict.
type Outcome struct {
	Run       *models.AnalysisRun
	Persisted bool
	SaveError string
}

// Analyze performs detection, scores it against the feed's ground truth and
// persists the run. Persistence failure never hides the computed metrics.
func (s *Service) Analyze(ctx context.Context, sess *session.State, req AnalyzeRequest) *Outcome {
	start := time.Now()

	items := catalog.Normalize(req.Items)
	groundTruth := catalog.GroundTruth(items)

	result := s.detector.Detect(ctx, req.Image, req.MimeType, items)
	m := evaluation.Evaluate(groundTruth, result.SKUNames)

	status := "ok"
	if result.Error != "" {
		status = "detection_error"
	} else {
		metrics.AccuracyScore.Observe(m.Accuracy)
	}
	metrics.AnalysisTotal.WithLabelValues(status).Inc()
	metrics.AnalysisDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	run := &models.AnalysisRun{
		ID:              uuid.New().String(),
		Date:            req.Date,
		DisplayID:       req.DisplayID,
		GroundTruthSKUs: groundTruth,
		PredictedSKUs:   result.SKUNames,
		Metrics:         m,
		RawDetection:    result,
		ImageURL:        req.ImageURL,
		CreatedAt:       time.Now(),
	}

	persisted, saveErr := s.Save(ctx, sess, run)

	logger.Info("Analysis completed",
		zap.String("run_id", run.ID),
		zap.String("display_id", req.DisplayID),
		zap.Float64("accuracy", m.Accuracy),
		zap.Bool("persisted", persisted),
	)

	return &Outcome{
		Run:       run,
		Persisted: persisted,
		SaveError: saveErr,
	}
}

// Save persists a run unless its content signature equals the session's last
// saved signature, in which case the write is skipped as a no-op success.
// The guard targets UI re-renders resubmitting unchanged data, not true
// duplicate runs. Never returns an error value: failures come back as a
// message for the caller to surface or ignore.
func (s *Service) Save(ctx context.Context, sess *session.State, run *models.AnalysisRun) (bool, string) {
	sig, err := Signature(run.Date, run.DisplayID, run.RawDetection)
	if err != nil {
		return false, fmt.Sprintf("failed to compute signature: %v", err)
	}
	run.Signature = sig

	if sess != nil && sess.LastSaveSignature == sig {
		metrics.RunsDeduplicated.Inc()
		logger.Debug("Duplicate save skipped",
			zap.String("display_id", run.DisplayID),
			zap.String("signature", sig),
		)
		return false, ""
	}

	if err := s.store.InsertRun(run); err != nil {
		logger.Error("Failed to persist run", zap.Error(err))
		return false, err.Error()
	}

	metrics.RunsPersisted.Inc()

	if sess != nil {
		sess.LastSaveSignature = sig
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRuns(ctx); err != nil {
			logger.Warn("Failed to invalidate history cache", zap.Error(err))
		}
	}

	return true, ""
}

// Fetch returns history newest first. Store failures yield an empty slice
// plus a message, never an error value.
func (s *Service) Fetch(ctx context.Context, date, displayID string, limit int) ([]models.AnalysisRun, string) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	filterHash := utils.HashString(fmt.Sprintf("%s|%s|%d", date, displayID, limit))

	if s.cache != nil {
		cached, hit, err := s.cache.GetRuns(ctx, filterHash)
		if err != nil {
			logger.Warn("History cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("runs").Inc()
			return cached, ""
		}
		metrics.CacheMisses.WithLabelValues("runs").Inc()
	}

	runs, err := s.store.GetRuns(date, displayID, limit)
	if err != nil {
		logger.Error("Failed to fetch runs", zap.Error(err))
		return []models.AnalysisRun{}, err.Error()
	}
	if runs == nil {
		runs = []models.AnalysisRun{}
	}

	if s.cache != nil {
		if err := s.cache.SetRuns(ctx, filterHash, runs); err != nil {
			logger.Warn("Failed to cache history", zap.Error(err))
		}
	}

	return runs, ""
}
