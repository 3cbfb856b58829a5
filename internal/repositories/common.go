package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "tourledger/internal/config"
	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
)

// conn returns tx when a caller is inside a transaction, else the repository DB or the global pool.
func conn(tx intdb.DBTX, db *sql.DB) intdb.DBTX {
	if tx != nil {
		return tx
	}
	if db != nil {
		return db
	}
	return intconfig.DB
}

func notFound(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func int64OrNil(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
