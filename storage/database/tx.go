package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type txRunner struct {
	begin func(ctx context.Context) (core.DBTransactor, error)
}

var _ core.TxRunner = (*txRunner)(nil) // interface compliance check

func NewTxRunner(db core.DB) core.TxRunner {
	return &txRunner{
		begin: func(ctx context.Context) (core.DBTransactor, error) {
			return db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		},
	}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
