// Package scope declares the repositories a pipeline stage works with and the
// transaction boundary around a stage's writes.
package scope

import (
	"context"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/salesrecon/backend/internal/domain/tiering"
)

// Repositories gives access to every pipeline table
type Repositories interface {
	RawOrders() order.RawOrderRepository
	Canonical() order.CanonicalOrderRepository
	Curated() order.CuratedOrderRepository
	Quarantine() order.QuarantineRepository
	Reference() reference.Repository
	Clusters() tiering.Repository
	Reports() report.Repository
}

// TransactionScope runs fn with repositories bound to one transaction.
// An error from fn rolls back every write made through those repositories.
type TransactionScope interface {
	Repositories
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
