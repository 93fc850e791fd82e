// Package document_repo provides PostgreSQL implementations for document
// repositories. Line tables are rewritten as a whole on save (delete plus
// insert), matching how the documents are edited.
package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"prorab/internal/infrastructure/storage/postgres"
)

// baseRepo carries shared plumbing for document repositories.
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
