package service

import (
	"github.com/kterra/authbridge/internal/lib/job"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/token"
)

// Services is a container that groups all business services.
type Services struct {
	Auth  *AuthService
	Notes *NotesService
	Job   *job.JobService
}

// NewService constructs the service container from the app container,
// the repositories, and the token service.
func NewService(s *server.Server, repos *repository.Repositories, tokens *token.Service) (*Services, error) {
	return &Services{
		Auth:  NewAuthService(s, repos, tokens),
		Notes: NewNotesService(s, repos),
		Job:   s.Job,
	}, nil
}
