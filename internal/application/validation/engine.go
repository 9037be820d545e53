// Package validation checks raw extract records against their source's rule
// set and splits each batch into forwarded records and quarantine entries.
package validation

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Policy decides which version of a checked record continues downstream
type Policy int

const (
	// PolicySanitize forwards the record with every violating field cleared
	PolicySanitize Policy = iota
	// PolicyObserve forwards the record unchanged and only reports it
	PolicyObserve
)

func (p Policy) String() string {
	if p == PolicyObserve {
		return "observe"
	}
	return "sanitize"
}

// Options configures one Engine
type Options struct {
	// SourceBReferentialChecks enables the mapping checks of source B's
	// city code and district name.
	SourceBReferentialChecks bool
	PolicyA                  Policy
	PolicyB                  Policy
}

// DefaultOptions sanitizes source A, observes source B and leaves the B
// referential checks off.
func DefaultOptions() Options {
	return Options{PolicyA: PolicySanitize, PolicyB: PolicyObserve}
}

// Engine validates raw records against one reference snapshot. Build a new
// Engine per run; the custom rules close over that run's Context.
type Engine struct {
	validate *validator.Validate
	ctx      *Context
	opts     Options
}

// NewEngine registers the rule set against vctx
func NewEngine(vctx *Context, opts Options) *Engine {
	v := validator.New()
	v.RegisterTagNameFunc(columnName)
	v.RegisterCustomTypeFunc(nullDecimalValue, decimal.NullDecimal{})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("known_district_id", func(fl validator.FieldLevel) bool {
		return vctx.HasDistrictID(fl.Field().Int())
	})
	_ = v.RegisterValidation("known_city", func(fl validator.FieldLevel) bool {
		return vctx.HasCity(fl.Field().String())
	})
	_ = v.RegisterValidation("known_district_name", func(fl validator.FieldLevel) bool {
		return vctx.HasDistrictName(fl.Field().String())
	})

	return &Engine{validate: v, ctx: vctx, opts: opts}
}

// Options returns the engine's configuration
func (e *Engine) Options() Options {
	return e.opts
}

// CheckA validates one source A record. The returned record has every
// violating field cleared.
func (e *Engine) CheckA(a order.RawOrderA) (order.RawOrderA, []order.Violation) {
	if a.OrderID == "" {
		return a, []order.Violation{missingOrderID(order.SourceA)}
	}
	violations := e.run(order.SourceA, rulesForA(a))
	return sanitizeA(a, violations), violations
}

// CheckB validates one source B record. The returned record has every
// violating field cleared; the default policy for B ignores it.
func (e *Engine) CheckB(b order.RawOrderB) (order.RawOrderB, []order.Violation) {
	if b.OrderID == "" {
		return b, []order.Violation{missingOrderID(order.SourceB)}
	}
	violations := e.run(order.SourceB, rulesForB(b))
	if e.opts.SourceBReferentialChecks {
		violations = append(violations, e.refViolations(b, violations)...)
	}
	return sanitizeB(b, violations), violations
}

// refViolations reports mapping misses for columns that passed the core rules
func (e *Engine) refViolations(b order.RawOrderB, core []order.Violation) []order.Violation {
	refs := refsB{ShipCityCode: b.ShipCityCode, ShipDistrictName: b.ShipDistrictName}
	var out []order.Violation
	for _, v := range e.run(order.SourceB, refs) {
		if !hasField(core, v.Field) {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) run(src order.Source, s any) []order.Violation {
	err := e.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable for non-struct input, which the callers never pass.
		return []order.Violation{{Field: "*", Rule: "invalid", Message: err.Error(), Source: src}}
	}
	out := make([]order.Violation, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = violationFor(src, fe)
	}
	return out
}

// Result is one validated batch
type Result[T any] struct {
	Forward    []T
	Quarantine []order.QuarantinedRecord
}

// ValidateA checks a source A batch and applies the A policy
func (e *Engine) ValidateA(ctx context.Context, rows []order.RawOrderA) Result[order.RawOrderA] {
	return validateBatch(ctx, order.SourceA, e.opts.PolicyA, rows,
		func(a order.RawOrderA) string { return a.OrderID }, e.CheckA)
}

// ValidateB checks a source B batch and applies the B policy
func (e *Engine) ValidateB(ctx context.Context, rows []order.RawOrderB) Result[order.RawOrderB] {
	return validateBatch(ctx, order.SourceB, e.opts.PolicyB, rows,
		func(b order.RawOrderB) string { return b.OrderID }, e.CheckB)
}

func validateBatch[T any](
	ctx context.Context,
	src order.Source,
	policy Policy,
	rows []T,
	idOf func(T) string,
	check func(T) (T, []order.Violation),
) Result[T] {
	log := logger.L(ctx).With(zap.String("source", string(src)), zap.Stringer("policy", policy))
	res := Result[T]{Forward: make([]T, 0, len(rows))}

	for _, row := range rows {
		sanitized, violations := check(row)
		id := idOf(row)
		if len(violations) > 0 {
			res.Quarantine = append(res.Quarantine, order.QuarantinedRecord{
				OrderID: id,
				Sources: []order.Source{src},
				Errors:  violations,
			})
			log.Debug("Record quarantined",
				zap.String("order_id", id),
				zap.Strings("errors", messagesOf(violations)),
			)
		}
		if id == "" {
			log.Warn("Record without order id dropped")
			continue
		}
		if policy == PolicySanitize {
			res.Forward = append(res.Forward, sanitized)
		} else {
			res.Forward = append(res.Forward, row)
		}
	}

	log.Info("Batch validated",
		zap.Int("received", len(rows)),
		zap.Int("forwarded", len(res.Forward)),
		zap.Int("quarantined", len(res.Quarantine)),
	)
	return res
}

func missingOrderID(src order.Source) order.Violation {
	return order.Violation{Field: ColOrderID, Rule: "required", Message: ColOrderID + " is required", Source: src}
}

func sanitizeA(a order.RawOrderA, violations []order.Violation) order.RawOrderA {
	for _, v := range violations {
		switch v.Field {
		case ColOrderTime:
			a.OrderTime = nil
		case ColCityDistrictID:
			a.CityDistrictID = nil
		case ColAmount:
			a.Amount = decimal.NullDecimal{}
		case ColCurrency:
			a.CurrencyCode = nil
		case ColQuantity:
			a.Quantity = nil
		}
	}
	return a
}

func sanitizeB(b order.RawOrderB, violations []order.Violation) order.RawOrderB {
	for _, v := range violations {
		switch v.Field {
		case ColOrderTime:
			b.OrderTime = nil
		case ColShipCityCode:
			b.ShipCityCode = nil
		case ColShipDistrictName:
			b.ShipDistrictName = nil
		case ColAmount:
			b.Amount = decimal.NullDecimal{}
		case ColCurrency:
			b.CurrencyCode = nil
		case ColQuantity:
			b.Quantity = nil
		}
	}
	return b
}

func hasField(violations []order.Violation, field string) bool {
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func messagesOf(violations []order.Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Message
	}
	return out
}
