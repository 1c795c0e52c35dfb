package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx aliases interface{} so repository implementations can declare their
// executor parameter as plain `qx any`.
type Tx = interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and hands the
// tx handle to fn as an opaque executor. Repositories receive that handle
// through their `tx Tx` parameter; the concrete type is infra-defined
// (pgx.Tx for Postgres) and repositories must accept NoTX for the
// non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
