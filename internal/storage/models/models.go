package models

import (
	"time"

	"github.com/shelfsight/backend/internal/detection"
	"github.com/shelfsight/backend/internal/evaluation"
)

// AnalysisRun is one persisted analysis of a display photo. Rows are written
// once and never mutated.
type AnalysisRun struct {
	ID              string             `json:"id"`
	Date            string             `json:"date"`
	DisplayID       string             `json:"display_id"`
	GroundTruthSKUs []string           `json:"ground_truth_skus"`
	PredictedSKUs   []string           `json:"predicted_skus"`
	Metrics         evaluation.Metrics `json:"metrics"`
	RawDetection    detection.Result   `json:"raw_detection"`
	ImageURL        string             `json:"image_url,omitempty"`
	Signature       string             `json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
}
