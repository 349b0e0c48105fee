package sheets

import (
	"context"

	"bilancio/internal/core"
)

// RowAppender is the outbound port for the export target: one appended row
// per synced transaction.
type RowAppender interface {
	AppendTransaction(ctx context.Context, d core.TransactionDetail) error
}
