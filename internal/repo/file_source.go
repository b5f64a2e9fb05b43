package repo

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/miradorstack/review-intel/internal/models"
)

// FileSource reads reviews from a JSON or CSV export. JSON may be an array of
// records or an object with a "reviews" array. CSV needs a header row naming at
// least the text column; id, business_id, rating, platform and review_date are
// optional.
type FileSource struct {
	path       string
	businessID string
}

// NewFileSource reads path, keeping only reviews of businessID when it is set.
func NewFileSource(path, businessID string) *FileSource {
	return &FileSource{path: path, businessID: businessID}
}

// Reviews loads the file.
func (s *FileSource) Reviews(ctx context.Context) ([]models.ReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open review file: %w", err)
	}
	defer f.Close()

	var records []models.ReviewRecord
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".csv":
		records, err = decodeCSV(f)
	case ".json":
		records, err = decodeJSON(f)
	default:
		return nil, fmt.Errorf("unsupported review file type %q", filepath.Ext(s.path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return filterBusiness(records, s.businessID), nil
}

func decodeJSON(r io.Reader) ([]models.ReviewRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Reviews []models.ReviewRecord `json:"reviews"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Reviews, nil
	}
	var records []models.ReviewRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeCSV(r io.Reader) ([]models.ReviewRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["text"]; !ok {
		return nil, errors.New("csv header has no text column")
	}
	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var records []models.ReviewRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := models.ReviewRecord{
			ID:         field(row, "id"),
			BusinessID: field(row, "business_id"),
			Text:       field(row, "text"),
			Platform:   field(row, "platform"),
			RawDate:    field(row, "review_date"),
		}
		if v := field(row, "rating"); v != "" {
			rating, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: rating %q: %w", line, v, err)
			}
			rec.Rating = rating
		}
		records = append(records, rec)
	}
	return records, nil
}

func filterBusiness(records []models.ReviewRecord, businessID string) []models.ReviewRecord {
	if businessID == "" {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if r.BusinessID == businessID {
			out = append(out, r)
		}
	}
	return out
}
