// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories. Repositories hold the TxManager and route every query
// through GetQuerier, so the same code runs inside and outside transactions.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"prorab/internal/infrastructure/storage/postgres"
)

// baseRepo carries shared plumbing for catalog repositories.
type baseRepo struct {
	txManager *postgres.TxManager
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r baseRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r baseRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}
