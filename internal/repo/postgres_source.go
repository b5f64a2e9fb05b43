package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

const postgresReviewsQuery = `
	SELECT id::text, business_id::text, COALESCE(text, ''), rating::float8,
	       COALESCE(platform, ''), review_date
	FROM reviews
	WHERE $1 = '' OR business_id::text = $1
	ORDER BY review_date, id`

// PostgresSource reads the reviews table of the application database.
type PostgresSource struct {
	pool       *pgxpool.Pool
	businessID string
}

// OpenPostgresSource connects to dsn with a small pool.
func OpenPostgresSource(ctx context.Context, dsn, businessID string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, utils.ConfigError("repo.OpenPostgresSource", "postgres source needs a dsn", nil)
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, utils.ConfigError("repo.OpenPostgresSource", "parse dsn", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresSource{pool: pool, businessID: businessID}, nil
}

// Reviews loads every review, ordered by date.
func (s *PostgresSource) Reviews(ctx context.Context) ([]models.ReviewRecord, error) {
	rows, err := s.pool.Query(ctx, postgresReviewsQuery, s.businessID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var records []models.ReviewRecord
	for rows.Next() {
		var (
			rec  models.ReviewRecord
			date time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.BusinessID, &rec.Text, &rec.Rating, &rec.Platform, &date); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rec.AuthoredAt = date.UTC()
		rec.RawDate = date.UTC().Format(time.RFC3339)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return records, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}
