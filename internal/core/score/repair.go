package score

import "github.com/agenthands/lossrun/internal/core/model"

// Repair is one speculative fix for a carrier-specific reporting quirk.
// TryRepair either applies its adjustment (returning true, record mutated)
// or leaves the record untouched. New carrier quirks get a new Repair; the
// scorer and merge logic never change.
type Repair interface {
	TryRepair(c *model.Claim, tolerance float64) bool
}

// DefaultRepairs returns the repair strategies in application order.
func DefaultRepairs() []Repair {
	return []Repair{
		ReserveRecoveryRepair{},
		DuplicatedReserveRepair{},
	}
}

type category struct {
	paid    *model.Money
	reserve *model.Money
}

func categories(c *model.Claim) []category {
	return []category{
		{&c.MedicalPaid, &c.MedicalReserve},
		{&c.IndemnityPaid, &c.IndemnityReserve},
		{&c.ExpensePaid, &c.ExpenseReserve},
	}
}

// ReserveRecoveryRepair handles reserves that were reported gross of a
// recovery: when a recovery exists and some category reserve exceeds it,
// reducing that reserve by the recovery can reconcile the total.
type ReserveRecoveryRepair struct{}

func (ReserveRecoveryRepair) TryRepair(c *model.Claim, tolerance float64) bool {
	if c.Recovery <= 0 {
		return false
	}
	for _, cat := range categories(c) {
		if *cat.reserve <= c.Recovery {
			continue
		}
		original := *cat.reserve
		*cat.reserve = original - c.Recovery
		if mathError(c) < tolerance {
			return true
		}
		*cat.reserve = original
	}
	return false
}

// DuplicatedReserveRepair handles accidental duplication where a category's
// reserve was copied from its paid amount: zeroing the reserve can reconcile
// the total.
type DuplicatedReserveRepair struct{}

func (DuplicatedReserveRepair) TryRepair(c *model.Claim, tolerance float64) bool {
	for _, cat := range categories(c) {
		if *cat.paid <= 0 || *cat.paid != *cat.reserve {
			continue
		}
		original := *cat.reserve
		*cat.reserve = 0
		if mathError(c) < tolerance {
			return true
		}
		*cat.reserve = original
	}
	return false
}
