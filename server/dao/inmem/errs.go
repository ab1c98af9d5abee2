package inmem

import "github.com/dekarrin/koto/server/dao"

var (
	ErrConstraintViolation = dao.ErrConstraintViolation
	ErrNotFound            = dao.ErrNotFound
)
