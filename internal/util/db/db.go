package db

import (
	"context"
	"database/sql"

	"github.com/aarondl/sqlboiler/v4/boil"
	_ "github.com/lib/pq" // postgres driver
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type TxFn func(boil.ContextExecutor) error

// WithTransaction runs fn in a transaction, committing on success and rolling back on error
// or panic.
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	return WithConfiguredTransaction(ctx, db, nil, fn)
}

func WithConfiguredTransaction(ctx context.Context, db *sql.DB, options *sql.TxOptions, fn TxFn) (err error) {
	tx, err := db.BeginTx(ctx, options)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to start transaction")
		return errors.Wrap(err, "failed to start transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("p", p).Msg("Recovered from panic, rolling back transaction and panicking again")

			if txErr := tx.Rollback(); txErr != nil {
				log.Warn().Err(txErr).Msg("Failed to roll back transaction after recovering from panic")
			}

			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Msg("Received error, rolling back transaction")

			if txErr := tx.Rollback(); txErr != nil {
				log.Warn().Err(txErr).Msg("Failed to roll back transaction after receiving error")
			}
		} else {
			err = tx.Commit()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to commit transaction")
			}
		}
	}()

	err = fn(tx)

	return err
}

// Open opens a Postgres connection pool and verifies it with a ping.
func Open(ctx context.Context, connectionString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}
