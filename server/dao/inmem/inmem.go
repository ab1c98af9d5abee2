// Package inmem provides in-memory (non-persistent) implementations of the
// server/dao repositories, useful for tests and for running the server
// without a configured sqlite storage directory.
package inmem

import (
	"fmt"

	"github.com/dekarrin/koto/server/dao"
)

type store struct {
	users   *InMemoryUsersRepository
	scripts *InMemoryScriptsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:   NewUsersRepository(),
		scripts: NewScriptsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Scripts() dao.ScriptRepository {
	return s.scripts
}

func (s *store) Close() error {
	var err error
	var nextErr error

	nextErr = s.users.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.scripts.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
