package repository

import (
	"github.com/kterra/authbridge/internal/server"
)

// Repositories is a container for all repository instances, so services
// accept one object instead of many.
type Repositories struct {
	Users *UsersRepository
	Notes *NotesRepository
}

// NewRepositories constructs the repository container. The DB pool and
// shared deps live on the app container.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Users: NewUsersRepository(s),
		Notes: NewNotesRepository(s),
	}
}
