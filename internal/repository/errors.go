package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors translated from driver level constraint violations.
var (
	ErrDuplicate  = errors.New("repository: duplicate record")
	ErrReferenced = errors.New("repository: record is referenced")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps postgres constraint violations onto repository sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrReferenced
	}
	return err
}
