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

var _ repository.FlashcardRepository = (*DB)(nil)

const flashcardColumns = `id, user_id, front, back, source, generation_id, created_at, updated_at`

// flashcardSortColumns whitelists ORDER BY targets. User input never reaches
// the SQL string directly.
var flashcardSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"front":      "front",
}

// CreateFlashcards inserts all cards in one transaction: either every card is
// stored or none is.
func (db *DB) CreateFlashcards(ctx context.Context, cards []*model.Flashcard) error {
	now := time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO flashcards (user_id, front, back, source, generation_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite: preparing flashcard insert: %w", err)
		}
		defer stmt.Close()

		for _, card := range cards {
			res, err := stmt.ExecContext(ctx,
				card.UserID,
				card.Front,
				card.Back,
				string(card.Source),
				nullInt64(card.GenerationID),
				now,
				now,
			)
			if err != nil {
				return fmt.Errorf("sqlite: inserting flashcard: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("sqlite: reading flashcard id: %w", err)
			}
			card.ID = id
			card.CreatedAt = now
			card.UpdatedAt = now
		}
		return nil
	})
}

func (db *DB) GetFlashcard(ctx context.Context, userID string, id int64) (*model.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	card, err := scanFlashcard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Flashcard not found")
		}
		return nil, fmt.Errorf("sqlite: getting flashcard %d: %w", id, err)
	}
	return card, nil
}

// ListFlashcards returns one page of the user's flashcards and the total number
// of rows matching the filter. Ties on the sort column are broken by id so that
// repeated calls return the same order.
func (db *DB) ListFlashcards(ctx context.Context, userID string, opts repository.FlashcardListOptions) ([]model.Flashcard, int, error) {
	column, ok := flashcardSortColumns[opts.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if opts.Order == repository.OrderAsc {
		direction = "ASC"
	}

	where := `WHERE user_id = ?`
	args := []any{userID}
	if opts.Source != nil {
		where += ` AND source = ?`
		args = append(args, string(*opts.Source))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM flashcards `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting flashcards: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM flashcards %s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		flashcardColumns, where, column, direction, direction)
	rows, err := db.conn.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing flashcards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.Flashcard, 0, opts.Limit)
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning flashcard row: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating flashcards: %w", err)
	}

	return cards, total, nil
}

// UpdateFlashcard applies patch to a flashcard the user owns and returns the
// stored result. Only front and back are ever written.
func (db *DB) UpdateFlashcard(ctx context.Context, userID string, id int64, patch repository.FlashcardPatch) (*model.Flashcard, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE flashcards
		 SET front = COALESCE(?, front), back = COALESCE(?, back), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(patch.Front),
		nullString(patch.Back),
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating flashcard %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("Flashcard not found")
	}

	return db.GetFlashcard(ctx, userID, id)
}

// DeleteFlashcard hard-deletes a flashcard. The user_id condition makes the
// delete a no-op for rows owned by someone else, which surfaces as not found.
func (db *DB) DeleteFlashcard(ctx context.Context, userID string, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM flashcards WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting flashcard %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Flashcard not found")
	}
	return nil
}

func (db *DB) CountFlashcardsBySource(ctx context.Context, userID string) (map[model.Source]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM flashcards WHERE user_id = ? GROUP BY source`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting flashcards by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Source]int, len(model.Sources))
	for _, s := range model.Sources {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning source count: %w", err)
		}
		counts[model.Source(source)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating source counts: %w", err)
	}
	return counts, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(s scanner) (*model.Flashcard, error) {
	var (
		card   model.Flashcard
		source string
		genID  sql.NullInt64
	)
	if err := s.Scan(
		&card.ID,
		&card.UserID,
		&card.Front,
		&card.Back,
		&source,
		&genID,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}
	card.Source = model.Source(source)
	if genID.Valid {
		id := genID.Int64
		card.GenerationID = &id
	}
	return &card, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
