package repositories

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// BaseRepository provides the shared connection handle and a scoped logger
type BaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBase creates a new base repository
func NewBase(db *sql.DB, log zerolog.Logger) *BaseRepository {
	return &BaseRepository{
		db:  db,
		log: log,
	}
}

// DB returns the database connection
func (r *BaseRepository) DB() *sql.DB {
	return r.db
}

// placeholders returns "?,?,...,?" with n entries for IN clauses
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '?')
	}
	return string(buf)
}
