package repositories

import (
	"errors"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// StoreErrorKind groups row store failures by how callers react to them.
type StoreErrorKind int

const (
	StoreErrorOther StoreErrorKind = iota
	StoreErrorMissingColumn
	StoreErrorNotFound
)

// StoreErrorClass is the result of ClassifyStoreError. Column is set for
// StoreErrorMissingColumn.
type StoreErrorClass struct {
	Kind   StoreErrorKind
	Column string
}

// Postgres SQLSTATE undefined_column.
const pgUndefinedColumn = "42703"

var (
	pgColumnPattern        = regexp.MustCompile(`column "([^"]+)"`)
	postgrestColumnPattern = regexp.MustCompile(`Could not find the '(.+?)' column`)
	sqliteColumnPattern    = regexp.MustCompile(`has no column named (\w+)`)
)

// ClassifyStoreError is the single place that decides what a store error means.
// Structured Postgres error codes are used when available; message patterns from
// the REST gateway and SQLite are the fallback.
func ClassifyStoreError(err error) StoreErrorClass {
	if err == nil {
		return StoreErrorClass{}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StoreErrorClass{Kind: StoreErrorNotFound}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		if pgErr.ColumnName != "" {
			return StoreErrorClass{Kind: StoreErrorMissingColumn, Column: pgErr.ColumnName}
		}
		if m := pgColumnPattern.FindStringSubmatch(pgErr.Message); m != nil {
			return StoreErrorClass{Kind: StoreErrorMissingColumn, Column: m[1]}
		}
	}

	msg := err.Error()
	for _, pattern := range []*regexp.Regexp{postgrestColumnPattern, sqliteColumnPattern} {
		if m := pattern.FindStringSubmatch(msg); m != nil {
			return StoreErrorClass{Kind: StoreErrorMissingColumn, Column: m[1]}
		}
	}
	return StoreErrorClass{Kind: StoreErrorOther}
}
