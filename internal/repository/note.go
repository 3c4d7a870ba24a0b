package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kterra/authbridge/internal/server"
)

// Note is a user-owned record; every query is scoped by owner so one
// user can never read or mutate another's notes.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotesRepository persists notes.
type NotesRepository struct {
	server *server.Server
}

// NewNotesRepository constructs a NotesRepository.
func NewNotesRepository(s *server.Server) *NotesRepository {
	return &NotesRepository{server: s}
}

const noteColumns = `id, user_id, title, body, created_at, updated_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a note for the given owner.
func (r *NotesRepository) Create(ctx context.Context, userID, title, body string) (*Note, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		INSERT INTO notes (user_id, title, body)
		VALUES ($1, $2, $3)
		RETURNING `+noteColumns,
		userID, title, body,
	)
	return scanNote(row)
}

// GetByID fetches a single note, scoped by owner.
func (r *NotesRepository) GetByID(ctx context.Context, userID, id string) (*Note, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("table:notes: %w", err)
	}
	return note, nil
}

// ListByUser returns the owner's notes, newest first.
func (r *NotesRepository) ListByUser(ctx context.Context, userID string) ([]*Note, error) {
	rows, err := r.server.DB.Pool.Query(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Update replaces the note's title and body, scoped by owner.
func (r *NotesRepository) Update(ctx context.Context, userID, id, title, body string) (*Note, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		UPDATE notes
		SET title = $3, body = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+noteColumns,
		id, userID, title, body,
	)
	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("table:notes: %w", err)
	}
	return note, nil
}

// Delete removes a note, scoped by owner. Deleting a note that does not
// exist (or is not yours) reports not-found.
func (r *NotesRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.server.DB.Pool.Exec(ctx, `
		DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("table:notes: %w", pgx.ErrNoRows)
	}
	return nil
}
