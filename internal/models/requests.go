package models

import "time"

// AnalysisRequest describes one batch run over a set of reviews.
type AnalysisRequest struct {
	BusinessID string
	Reviews    []ReviewRecord
	// ReferenceTime anchors relative review dates such as "3 weeks ago".
	ReferenceTime time.Time
}
