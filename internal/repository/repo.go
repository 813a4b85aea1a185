// Package repository holds the Postgres stores shared by the sync server and
// the package worker.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundf("%s", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
