package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/review-intel/internal/engine"
	"github.com/miradorstack/review-intel/internal/models"
)

// analysisRequest is the JSON shape of an Analyze request document.
type analysisRequest struct {
	BusinessID    string                `json:"business_id"`
	ReferenceTime string                `json:"reference_time"`
	Reviews       []models.ReviewRecord `json:"reviews"`
}

// FromProtoAnalysisRequest maps the request document into a domain request.
// reviews is required; reference_time, when set, must be RFC3339.
func FromProtoAnalysisRequest(req *structpb.Struct) (models.AnalysisRequest, error) {
	if req == nil {
		return models.AnalysisRequest{}, fmt.Errorf("request is nil")
	}
	data, err := protojson.Marshal(req)
	if err != nil {
		return models.AnalysisRequest{}, fmt.Errorf("encode request: %w", err)
	}
	var wire analysisRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		return models.AnalysisRequest{}, fmt.Errorf("decode request: %w", err)
	}
	if len(wire.Reviews) == 0 {
		return models.AnalysisRequest{}, fmt.Errorf("reviews must not be empty")
	}

	out := models.AnalysisRequest{BusinessID: strings.TrimSpace(wire.BusinessID), Reviews: wire.Reviews}
	if wire.ReferenceTime != "" {
		ref, err := time.Parse(time.RFC3339, wire.ReferenceTime)
		if err != nil {
			return models.AnalysisRequest{}, fmt.Errorf("reference_time must be RFC3339: %w", err)
		}
		out.ReferenceTime = ref
	}
	for i := range out.Reviews {
		if out.Reviews[i].BusinessID == "" {
			out.Reviews[i].BusinessID = out.BusinessID
		}
	}
	return out, nil
}

// ToProtoReport converts a report into its response document, which carries
// the same fields as the report's JSON encoding.
func ToProtoReport(report engine.Report) (*structpb.Struct, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert report: %w", err)
	}
	return out, nil
}
