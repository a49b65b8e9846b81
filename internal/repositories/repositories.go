// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations and sequence generation.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., history #42).
// Call it inside the inserting transaction so concurrent writers cannot collide.
func NextSequence(ctx context.Context, q queryer, table string) (int, error) {
	var sequence int
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(sequence), 0) + 1 FROM %s", table)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return sequence, nil
}
