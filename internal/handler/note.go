package handler

import (
	"time"

	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/service"
	"github.com/labstack/echo/v4"
)

// NotesHandler exposes CRUD endpoints for the caller's notes. Every
// operation is scoped to the authenticated user; the handler never
// accepts a user id from the request.
type NotesHandler struct {
	Handler
	notes *service.NotesService
}

// NewNotesHandler constructs a NotesHandler.
func NewNotesHandler(s *server.Server, notes *service.NotesService) *NotesHandler {
	return &NotesHandler{
		Handler: NewHandler(s),
		notes:   notes,
	}
}

// --- Request/response types -------------------------------------------------

// EmptyRequest is the payload for endpoints that take no input beyond
// the authenticated user.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

// CreateNoteRequest is the payload for POST /api/v1/notes.
type CreateNoteRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

func (r *CreateNoteRequest) Validate() error {
	return validate.Struct(r)
}

// NoteIDRequest binds the :id path parameter for single-note endpoints.
type NoteIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *NoteIDRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateNoteRequest is the payload for PUT /api/v1/notes/:id.
type UpdateNoteRequest struct {
	ID    string `param:"id" validate:"required,uuid"`
	Title string `json:"title" validate:"required,min=1,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

func (r *UpdateNoteRequest) Validate() error {
	return validate.Struct(r)
}

// NoteResponse is the public view of a note.
type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNoteResponse maps a repository note onto the public view. UserID is
// dropped: the caller already knows who they are.
func NewNoteResponse(n *repository.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NotesListResponse wraps the list endpoint payload so pagination fields
// can be added without breaking clients.
type NotesListResponse struct {
	Notes []NoteResponse `json:"notes"`
	Count int            `json:"count"`
}

// --- Endpoints --------------------------------------------------------------

// Create handles POST /api/v1/notes.
func (h *NotesHandler) Create(c echo.Context, req *CreateNoteRequest) (NoteResponse, error) {
	note, err := h.notes.Create(c.Request().Context(), middleware.GetUserID(c), req.Title, req.Body)
	if err != nil {
		return NoteResponse{}, err
	}
	return NewNoteResponse(note), nil
}

// Get handles GET /api/v1/notes/:id.
func (h *NotesHandler) Get(c echo.Context, req *NoteIDRequest) (NoteResponse, error) {
	note, err := h.notes.Get(c.Request().Context(), middleware.GetUserID(c), req.ID)
	if err != nil {
		return NoteResponse{}, err
	}
	return NewNoteResponse(note), nil
}

// List handles GET /api/v1/notes.
func (h *NotesHandler) List(c echo.Context, req *EmptyRequest) (NotesListResponse, error) {
	notes, err := h.notes.List(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return NotesListResponse{}, err
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NewNoteResponse(n))
	}
	return NotesListResponse{Notes: out, Count: len(out)}, nil
}

// Update handles PUT /api/v1/notes/:id.
func (h *NotesHandler) Update(c echo.Context, req *UpdateNoteRequest) (NoteResponse, error) {
	note, err := h.notes.Update(c.Request().Context(), middleware.GetUserID(c), req.ID, req.Title, req.Body)
	if err != nil {
		return NoteResponse{}, err
	}
	return NewNoteResponse(note), nil
}

// Delete handles DELETE /api/v1/notes/:id. 204 on success, 404 when the
// note does not exist or belongs to someone else.
func (h *NotesHandler) Delete(c echo.Context, req *NoteIDRequest) error {
	return h.notes.Delete(c.Request().Context(), middleware.GetUserID(c), req.ID)
}
