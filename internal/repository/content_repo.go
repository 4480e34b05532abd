package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"turing-backend/internal/models"
)

// ContentRepo reads and seeds the content_items table. The server loads
// the whole corpus once at startup; per-round reads never touch Postgres.
type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) ListAll(ctx context.Context) ([]models.ContentItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, theme, condition, type, prompt, human_response, ai_response, tags
		FROM content_items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query content items: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		var item models.ContentItem
		if err := rows.Scan(
			&item.ID,
			&item.Theme,
			&item.Condition,
			&item.Type,
			&item.Prompt,
			&item.Human,
			&item.AI,
			&item.Tags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Upsert inserts one corpus item, replacing any previous version with the
// same ID. Used by the import tool only.
func (r *ContentRepo) Upsert(ctx context.Context, item models.ContentItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO content_items (id, theme, condition, type, prompt, human_response, ai_response, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			theme = EXCLUDED.theme,
			condition = EXCLUDED.condition,
			type = EXCLUDED.type,
			prompt = EXCLUDED.prompt,
			human_response = EXCLUDED.human_response,
			ai_response = EXCLUDED.ai_response,
			tags = EXCLUDED.tags
	`, item.ID, item.Theme, item.Condition, item.Type, item.Prompt, item.Human, item.AI, item.Tags)
	if err != nil {
		return fmt.Errorf("failed to upsert content item %s: %w", item.ID, err)
	}
	return nil
}

func (r *ContentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM content_items").Scan(&count)
	return count, err
}
