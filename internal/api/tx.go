package api

import (
	"context"

	"github.com/rgardner/taskflow-api/internal/store"
)

// TxRunner executes fn inside a database transaction. The server wires it to
// store.RunInTransaction over the connection pool. Handlers whose mutations
// read back their result use it so the response reflects exactly the write
// that produced it, not a later concurrent one.
type TxRunner func(ctx context.Context, fn store.TxFn) error
