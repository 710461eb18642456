package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"horizonscan/internal/domain"
	"horizonscan/internal/ports"
)

// PostgresRepository persists reviewed updates into Postgres for audit
// history and cross-run deduplication.
type PostgresRepository struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

var _ ports.UpdateRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// SeenLinks returns a map with the links already stored by earlier runs.
func (r *PostgresRepository) SeenLinks(ctx context.Context, links []string) (map[string]bool, error) {
	if r.db == nil || len(links) == 0 {
		return map[string]bool{}, nil
	}

	query := `SELECT DISTINCT link FROM reviewed_updates WHERE link = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.StringArray(links))
	if err != nil {
		return nil, fmt.Errorf("query seen links: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan link: %w", err)
		}
		result[link] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveReviewed upserts every reviewed update; a record seen again in a
// later run refreshes its decision.
func (r *PostgresRepository) SaveReviewed(ctx context.Context, updates []domain.ReviewedUpdate) error {
	if r.db == nil || len(updates) == 0 {
		return nil
	}

	for _, update := range updates {
		query, args, err := r.builder.
			Insert("reviewed_updates").
			Columns("run_id", "source_url", "published", "topic", "additional_context", "link", "regulator", "recommendation", "reason").
			Values(
				update.RunID,
				update.SourceURL,
				update.Date,
				update.Topic,
				update.AdditionalContext,
				update.Link,
				update.Regulator,
				string(update.Recommendation),
				update.Reason,
			).
			Suffix(`ON CONFLICT (link, topic) DO UPDATE
			        SET recommendation = EXCLUDED.recommendation,
			            reason = EXCLUDED.reason,
			            run_id = EXCLUDED.run_id,
			            updated_at = NOW()`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert reviewed update %q: %w", update.Topic, err)
		}
	}

	return nil
}
