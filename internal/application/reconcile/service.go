// Package reconcile builds the silver table: it validates both bronze
// extracts, quarantines failing records and merges the rest into
// canonical_orders.
package reconcile

import (
	"context"
	"fmt"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/application/validation"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Result summarizes one silver run
type Result struct {
	ReadA        int `json:"read_a"`
	ReadB        int `json:"read_b"`
	ForwardedA   int `json:"forwarded_a"`
	ForwardedB   int `json:"forwarded_b"`
	QuarantinedA int `json:"quarantined_a"`
	QuarantinedB int `json:"quarantined_b"`
	// Quarantined counts grouped records; an ORDER_ID failing in both
	// sources is one record.
	Quarantined int `json:"quarantined"`
	Upserted    int `json:"upserted"`
}

// Service runs the silver stage
type Service struct {
	txScope scope.TransactionScope
	opts    validation.Options
}

// NewService creates a new silver stage service
func NewService(txScope scope.TransactionScope, opts validation.Options) *Service {
	return &Service{txScope: txScope, opts: opts}
}

// Run reads the bronze snapshot, validates it against the current mapping
// and writes the canonical upsert and the quarantine in one transaction.
func (s *Service) Run(ctx context.Context, runID string) (*Result, error) {
	res := &Result{}
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		mapping, err := repos.Reference().FindCityDistricts(ctx)
		if err != nil {
			return fmt.Errorf("read city district map: %w", err)
		}
		rawA, err := repos.RawOrders().FindAllA(ctx)
		if err != nil {
			return fmt.Errorf("read source A: %w", err)
		}
		rawB, err := repos.RawOrders().FindAllB(ctx)
		if err != nil {
			return fmt.Errorf("read source B: %w", err)
		}
		res.ReadA, res.ReadB = len(rawA), len(rawB)

		engine := validation.NewEngine(validation.NewContext(mapping), s.opts)
		opts := engine.Options()
		logger.L(ctx).Debug("Validating bronze snapshot",
			zap.Stringer("policy_a", opts.PolicyA),
			zap.Stringer("policy_b", opts.PolicyB),
			zap.Bool("source_b_referential_checks", opts.SourceBReferentialChecks),
			zap.Int("mapping_size", len(mapping)),
		)
		checkedA := engine.ValidateA(ctx, rawA)
		checkedB := engine.ValidateB(ctx, rawB)
		res.ForwardedA, res.ForwardedB = len(checkedA.Forward), len(checkedB.Forward)
		res.QuarantinedA, res.QuarantinedB = len(checkedA.Quarantine), len(checkedB.Quarantine)

		quarantine := order.GroupQuarantine(runID, checkedA.Quarantine, checkedB.Quarantine)
		res.Quarantined = len(quarantine)
		if err := repos.Quarantine().ReplaceAll(ctx, quarantine); err != nil {
			return fmt.Errorf("write quarantine: %w", err)
		}

		merged := Union(NormalizeA(checkedA.Forward, mapping), NormalizeB(checkedB.Forward))
		n, err := repos.Canonical().UpsertAll(ctx, merged)
		if err != nil {
			return fmt.Errorf("upsert canonical orders: %w", err)
		}
		res.Upserted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Silver stage completed",
		zap.Int("read_a", res.ReadA),
		zap.Int("read_b", res.ReadB),
		zap.Int("quarantined", res.Quarantined),
		zap.Int("upserted", res.Upserted),
	)
	return res, nil
}
