package budget

import "github.com/aetheriaxai/wasmhost/pkg/types"

// BudgetDimension is the per-resource ledger of one metered dimension (cpu
// instructions or memory bytes): a cost model per CostType, per-type output
// counters, a running total, and the limit the total is compared against.
type BudgetDimension struct {
	// costModels maps CostType ordinals to the model producing this
	// dimension's resource amounts, making runtime lookups a slice index.
	costModels []CostModel
	limit      uint64
	counts     []uint64
	totalCount uint64
}

func newBudgetDimension() *BudgetDimension {
	return &BudgetDimension{
		costModels: make([]CostModel, NumCostTypes),
		counts:     make([]uint64, NumCostTypes),
	}
}

// dimensionFromParams builds a dimension from an ordered cost schedule. The
// schedule carries its own length, which the dimension trusts; any negative
// term rejects the whole schedule.
func dimensionFromParams(params CostParams) (*BudgetDimension, error) {
	models := make([]CostModel, 0, len(params))
	for _, entry := range params {
		m, err := modelFromParamEntry(entry)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return &BudgetDimension{
		costModels: models,
		counts:     make([]uint64, len(params)),
	}, nil
}

// CostModel returns the model configured for the given cost type.
func (d *BudgetDimension) CostModel(ty CostType) CostModel {
	return d.costModels[ty]
}

func (d *BudgetDimension) setCostModel(ty CostType, m CostModel) {
	d.costModels[ty] = m
}

// Count returns the accumulated output for one cost type.
func (d *BudgetDimension) Count(ty CostType) uint64 {
	return d.counts[ty]
}

// TotalCount returns the accumulated output across all cost types.
func (d *BudgetDimension) TotalCount() uint64 {
	return d.totalCount
}

// Limit returns the configured limit.
func (d *BudgetDimension) Limit() uint64 {
	return d.limit
}

// Remaining returns the saturating difference between limit and total.
func (d *BudgetDimension) Remaining() uint64 {
	if d.totalCount > d.limit {
		return 0
	}
	return d.limit - d.totalCount
}

// IsOverBudget reports whether the total has crossed the limit.
func (d *BudgetDimension) IsOverBudget() bool {
	return d.totalCount > d.limit
}

// Charge evaluates the cost model for ty, multiplies by the iteration
// count, and accumulates the amount. The counters are updated before the
// overrun check so that the full charge, including the crossing
// contribution, stays observable after failure.
func (d *BudgetDimension) Charge(ty CostType, iterations uint64, input *uint64) error {
	amount := saturatingMul(d.costModels[ty].Evaluate(input), iterations)
	d.counts[ty] = saturatingAdd(d.counts[ty], amount)
	d.totalCount = saturatingAdd(d.totalCount, amount)
	if d.IsOverBudget() {
		return types.NewError(types.ErrBudget, types.CodeExceededLimit)
	}
	return nil
}

// Reset sets a new limit and zeros every counter. Cost models are left
// untouched.
func (d *BudgetDimension) Reset(limit uint64) {
	d.limit = limit
	d.totalCount = 0
	for i := range d.counts {
		d.counts[i] = 0
	}
}
