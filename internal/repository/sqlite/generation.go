package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

var _ repository.GenerationRepository = (*DB)(nil)

const generationColumns = `id, user_id, model, generated_count, source_text_hash, source_text_length,
	generation_duration, accepted_unedited_count, accepted_edited_count, created_at, updated_at`

func (db *DB) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	now := time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO generations (user_id, model, generated_count, source_text_hash, source_text_length,
			generation_duration, accepted_unedited_count, accepted_edited_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		gen.UserID,
		gen.Model,
		gen.GeneratedCount,
		gen.SourceTextHash,
		gen.SourceTextLength,
		gen.DurationMS,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting generation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading generation id: %w", err)
	}

	gen.ID = id
	gen.AcceptedUneditedCount = 0
	gen.AcceptedEditedCount = 0
	gen.CreatedAt = now
	gen.UpdatedAt = now
	return nil
}

// GetGeneration returns the generation only if userID owns it.
func (db *DB) GetGeneration(ctx context.Context, userID string, id int64) (*model.Generation, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	gen, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Generation not found or access denied")
		}
		return nil, fmt.Errorf("sqlite: getting generation %d: %w", id, err)
	}
	return gen, nil
}

func (db *DB) ListGenerations(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Generation, int, error) {
	direction := "DESC"
	if opts.Order == repository.OrderAsc {
		direction = "ASC"
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generations WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting generations: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM generations WHERE user_id = ?
		 ORDER BY created_at %s, id %s LIMIT ? OFFSET ?`, generationColumns, direction, direction),
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing generations: %w", err)
	}
	defer rows.Close()

	gens := make([]model.Generation, 0, opts.Limit)
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning generation row: %w", err)
		}
		gens = append(gens, *gen)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating generations: %w", err)
	}
	return gens, total, nil
}

// UpdateAcceptedCounts overwrites both accepted counters of an owned generation.
func (db *DB) UpdateAcceptedCounts(ctx context.Context, userID string, id int64, unedited, edited int) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE generations
		 SET accepted_unedited_count = ?, accepted_edited_count = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		unedited, edited, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating generation %d counts: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Generation not found or access denied")
	}
	return nil
}

func (db *DB) CreateErrorLog(ctx context.Context, entry *model.GenerationErrorLog) error {
	entry.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO generation_error_logs (user_id, model, source_text_hash, source_text_length,
			error_code, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID,
		entry.Model,
		entry.SourceTextHash,
		entry.SourceTextLength,
		entry.ErrorCode,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting generation error log: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading error log id: %w", err)
	}
	return nil
}

func (db *DB) GenerationTotals(ctx context.Context, userID string) (*repository.GenerationTotals, error) {
	totals := &repository.GenerationTotals{ModelsUsed: map[string]int{}}

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(generated_count), 0),
		        COALESCE(SUM(accepted_unedited_count), 0),
		        COALESCE(SUM(accepted_edited_count), 0),
		        COALESCE(AVG(generation_duration), 0)
		 FROM generations WHERE user_id = ?`,
		userID,
	).Scan(
		&totals.Generations,
		&totals.Generated,
		&totals.AcceptedUnedited,
		&totals.AcceptedEdited,
		&totals.AvgDurationMS,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating generations: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT model, COUNT(*) FROM generations WHERE user_id = ? GROUP BY model`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting generations by model: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning model count: %w", err)
		}
		totals.ModelsUsed[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating model counts: %w", err)
	}
	return totals, nil
}

func scanGeneration(s scanner) (*model.Generation, error) {
	var gen model.Generation
	if err := s.Scan(
		&gen.ID,
		&gen.UserID,
		&gen.Model,
		&gen.GeneratedCount,
		&gen.SourceTextHash,
		&gen.SourceTextLength,
		&gen.DurationMS,
		&gen.AcceptedUneditedCount,
		&gen.AcceptedEditedCount,
		&gen.CreatedAt,
		&gen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &gen, nil
}
