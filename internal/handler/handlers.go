package handler

import (
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around instead of many.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Auth    *AuthHandler
	Users   *UsersHandler
	Notes   *NotesHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Auth:    NewAuthHandler(s, services.Auth),
		Users:   NewUsersHandler(s, repos),
		Notes:   NewNotesHandler(s, services.Notes),
	}
}
