package order

import "context"

// RawOrderRepository reads and loads the bronze extracts
type RawOrderRepository interface {
	FindAllA(ctx context.Context) ([]RawOrderA, error)
	FindAllB(ctx context.Context) ([]RawOrderB, error)
	UpsertA(ctx context.Context, rows []RawOrderA) (int, error)
	UpsertB(ctx context.Context, rows []RawOrderB) (int, error)
}

// CanonicalOrderRepository is the silver table. UpsertAll overwrites every
// non-key column of existing order ids and inserts the rest.
type CanonicalOrderRepository interface {
	UpsertAll(ctx context.Context, rows []CanonicalOrder) (int, error)
	FindAll(ctx context.Context) ([]CanonicalOrder, error)
	FindPage(ctx context.Context, offset, limit int) ([]CanonicalOrder, int64, error)
	FindByID(ctx context.Context, orderID string) (*CanonicalOrder, error)
}

// CuratedOrderRepository is the gold table, with the same upsert contract
type CuratedOrderRepository interface {
	UpsertAll(ctx context.Context, rows []CuratedOrder) (int, error)
	FindAll(ctx context.Context) ([]CuratedOrder, error)
	FindPage(ctx context.Context, offset, limit int) ([]CuratedOrder, int64, error)
}

// QuarantineRepository stores the grouped violations of the latest run
type QuarantineRepository interface {
	ReplaceAll(ctx context.Context, rows []QuarantinedRecord) error
	FindAll(ctx context.Context) ([]QuarantinedRecord, error)
}
