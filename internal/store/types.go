package store

import "errors"

// ErrDuplicate marks a unique-constraint violation, dialect-agnostic.
var ErrDuplicate = errors.New("duplicate row")

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)
