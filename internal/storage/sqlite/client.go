package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/storage/models"
	"github.com/shelfsight/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		display_id TEXT NOT NULL,
		ground_truth_skus TEXT NOT NULL,
		predicted_skus TEXT NOT NULL,
		accuracy REAL NOT NULL,
		metrics TEXT NOT NULL,
		raw_detection TEXT NOT NULL,
		image_url TEXT,
		signature TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_date ON analysis_runs(date);
	CREATE INDEX IF NOT EXISTS idx_runs_display ON analysis_runs(display_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON analysis_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_signature ON analysis_runs(signature);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertRun(run *models.AnalysisRun) error {
	groundTruthJSON, err := json.Marshal(run.GroundTruthSKUs)
	if err != nil {
		return fmt.Errorf("failed to serialize ground truth: %w", err)
	}
	predictedJSON, err := json.Marshal(run.PredictedSKUs)
	if err != nil {
		return fmt.Errorf("failed to serialize predictions: %w", err)
	}
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}
	rawDetectionJSON, err := json.Marshal(run.RawDetection)
	if err != nil {
		return fmt.Errorf("failed to serialize detection: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (id, date, display_id, ground_truth_skus, predicted_skus,
			accuracy, metrics, raw_detection, image_url, signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.Exec(
		query,
		run.ID,
		run.Date,
		run.DisplayID,
		string(groundTruthJSON),
		string(predictedJSON),
		run.Metrics.Accuracy,
		string(metricsJSON),
		string(rawDetectionJSON),
		run.ImageURL,
		run.Signature,
		run.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	logger.Info("Analysis run recorded",
		zap.String("run_id", run.ID),
		zap.String("display_id", run.DisplayID),
		zap.Float64("accuracy", run.Metrics.Accuracy),
	)

	return nil
}

// GetRuns returns history newest first. Blank filters match every row.
func (c *Client) GetRuns(date, displayID string, limit int) ([]models.AnalysisRun, error) {
	query := `
		SELECT id, date, display_id, ground_truth_skus, predicted_skus, metrics,
			raw_detection, image_url, signature, created_at
		FROM analysis_runs
		WHERE (? = '' OR date = ?)
		  AND (? = '' OR display_id = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, date, date, displayID, displayID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		var r models.AnalysisRun
		var groundTruthJSON, predictedJSON, metricsJSON, rawDetectionJSON string
		var imageURL sql.NullString
		var createdAt int64

		err := rows.Scan(
			&r.ID,
			&r.Date,
			&r.DisplayID,
			&groundTruthJSON,
			&predictedJSON,
			&metricsJSON,
			&rawDetectionJSON,
			&imageURL,
			&r.Signature,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if err := json.Unmarshal([]byte(groundTruthJSON), &r.GroundTruthSKUs); err != nil {
			return nil, fmt.Errorf("failed to decode ground truth: %w", err)
		}
		if err := json.Unmarshal([]byte(predictedJSON), &r.PredictedSKUs); err != nil {
			return nil, fmt.Errorf("failed to decode predictions: %w", err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &r.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metrics: %w", err)
		}
		if err := json.Unmarshal([]byte(rawDetectionJSON), &r.RawDetection); err != nil {
			return nil, fmt.Errorf("failed to decode detection: %w", err)
		}

		r.ImageURL = imageURL.String
		r.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return runs, nil
}
