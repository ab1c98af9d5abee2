// Package dao provides data access objects for the Koto script-execution
// server: persistence for registered users and the scripts they upload.
package dao

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Store holds all the repositories backing the server.
type Store interface {
	Users() UserRepository
	Scripts() ScriptRepository
	Close() error
}

// ScriptRepository persists uploaded Koto source together with its cached
// parsed AST (internal/koto/cache.go's rezi-encoded blob).
type ScriptRepository interface {
	Create(ctx context.Context, s Script) (Script, error)
	GetByID(ctx context.Context, id uuid.UUID) (Script, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Script, error)
	GetAll(ctx context.Context) ([]Script, error)
	Update(ctx context.Context, id uuid.UUID, s Script) (Script, error)
	Delete(ctx context.Context, id uuid.UUID) (Script, error)
	Close() error
}

// Script is one stored Koto program.
type Script struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Source   string
	ASTCache []byte // rezi-encoded cache.Entry; empty if not yet compiled
	Created  time.Time
	Modified time.Time
}

// UserRepository persists the server's registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

// Role is an authorization level for a User.
type Role int

const (
	Unverified Role = iota
	Normal
	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return "unverified"
	}
}

// ParseRole parses a Role from its String form, as stored in a repository's
// backing format.
func ParseRole(s string) (Role, error) {
	switch s {
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Unverified, fmt.Errorf("%q is not a valid role", s)
	}
}

// User is a registered server account.
type User struct {
	ID       uuid.UUID
	Username string
	Password string // bcrypt hash
	Email    *mail.Address
	Role     Role

	// LastLogoutTime is folded into the JWT signing key (server/token), so
	// bumping it invalidates every token issued before the logout.
	LastLogoutTime time.Time

	Created  time.Time
	Modified time.Time
}
