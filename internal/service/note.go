package service

import (
	"context"

	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
)

// NotesService handles note CRUD. Ownership enforcement lives in the
// repository queries; this layer exists so handlers never touch the
// repository directly and future business rules have a home.
type NotesService struct {
	server *server.Server
	repos  *repository.Repositories
}

// NewNotesService constructs a NotesService.
func NewNotesService(s *server.Server, repos *repository.Repositories) *NotesService {
	return &NotesService{
		server: s,
		repos:  repos,
	}
}

// Create stores a new note for the user.
func (n *NotesService) Create(ctx context.Context, userID, title, body string) (*repository.Note, error) {
	return n.repos.Notes.Create(ctx, userID, title, body)
}

// Get fetches one of the user's notes.
func (n *NotesService) Get(ctx context.Context, userID, noteID string) (*repository.Note, error) {
	return n.repos.Notes.GetByID(ctx, userID, noteID)
}

// List returns the user's notes, newest first.
func (n *NotesService) List(ctx context.Context, userID string) ([]*repository.Note, error) {
	return n.repos.Notes.ListByUser(ctx, userID)
}

// Update replaces a note's title and body.
func (n *NotesService) Update(ctx context.Context, userID, noteID, title, body string) (*repository.Note, error) {
	return n.repos.Notes.Update(ctx, userID, noteID, title, body)
}

// Delete removes a note.
func (n *NotesService) Delete(ctx context.Context, userID, noteID string) error {
	return n.repos.Notes.Delete(ctx, userID, noteID)
}
