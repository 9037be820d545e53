package persistence

import (
	"context"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/salesrecon/backend/internal/domain/tiering"
	"gorm.io/gorm"
)

// GormTransactionScope implements scope.TransactionScope using GORM transactions
type GormTransactionScope struct {
	gormRepositories
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, batchSize int) *GormTransactionScope {
	return &GormTransactionScope{gormRepositories{db: db, batchSize: batchSize}}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx, batchSize: s.batchSize})
	})
}

type gormRepositories struct {
	db        *gorm.DB
	batchSize int
}

func (r *gormRepositories) RawOrders() order.RawOrderRepository {
	return NewGormRawOrderRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Canonical() order.CanonicalOrderRepository {
	return NewGormCanonicalOrderRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Curated() order.CuratedOrderRepository {
	return NewGormCuratedOrderRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Quarantine() order.QuarantineRepository {
	return NewGormQuarantineRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Reference() reference.Repository {
	return NewGormReferenceRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Clusters() tiering.Repository {
	return NewGormClusterRepository(r.db, r.batchSize)
}

func (r *gormRepositories) Reports() report.Repository {
	return NewGormReportRepository(r.db)
}

var _ scope.TransactionScope = (*GormTransactionScope)(nil)
