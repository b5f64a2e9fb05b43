package repo

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

const sqliteReviewsQuery = `
	SELECT id, business_id, COALESCE(text, ''), rating, COALESCE(platform, ''), review_date
	FROM reviews
	WHERE ? = '' OR business_id = ?
	ORDER BY review_date, id`

// SQLiteSource reads the reviews table of a local SQLite database.
type SQLiteSource struct {
	db         *sql.DB
	businessID string
}

// OpenSQLiteSource opens the database at path read-only.
func OpenSQLiteSource(path, businessID string) (*SQLiteSource, error) {
	if path == "" {
		return nil, utils.ConfigError("repo.OpenSQLiteSource", "sqlite source needs a path", nil)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteSource{db: db, businessID: businessID}, nil
}

// Reviews loads every review, ordered by date.
func (s *SQLiteSource) Reviews(ctx context.Context) ([]models.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteReviewsQuery, s.businessID, s.businessID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var records []models.ReviewRecord
	for rows.Next() {
		var (
			rec      models.ReviewRecord
			business sql.NullString
			rating   sql.NullFloat64
			date     sql.NullString
		)
		if err := rows.Scan(&rec.ID, &business, &rec.Text, &rating, &rec.Platform, &date); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rec.BusinessID = business.String
		rec.Rating = rating.Float64
		rec.RawDate = date.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
