// Package score computes the arithmetic self-consistency of a claim record
// and attempts bounded heuristic repairs when the numbers do not reconcile.
// A record that stays invalid is retained with MathValid=false: partial data
// outranks no data.
package score

import (
	"math"

	"github.com/agenthands/lossrun/internal/core/model"
)

// mathError returns the smaller of the gross and net-of-recovery deviations
// from the reported total. Both aggregation orders are plausible depending on
// whether the carrier nets recoveries out of Total Incurred.
func mathError(c *model.Claim) float64 {
	gross := float64(c.MedicalPaid) + float64(c.MedicalReserve) +
		float64(c.IndemnityPaid) + float64(c.IndemnityReserve) +
		float64(c.ExpensePaid) + float64(c.ExpenseReserve)
	net := gross - float64(c.Recovery)
	total := float64(c.TotalIncurred)
	return math.Min(math.Abs(gross-total), math.Abs(net-total))
}

// Claim scores one record in place: MathValid, MathDiff, and QualityScore
// (1.0 when the math reconciles within tolerance, 0.5 otherwise). When the
// record is invalid, the repair strategies run in order; the first one whose
// adjustment brings the record within tolerance is applied and the quality
// upgraded.
func Claim(c *model.Claim, tolerance float64, repairs []Repair) {
	err := mathError(c)
	c.MathValid = err < tolerance
	c.MathDiff = round2(err)
	if c.MathValid {
		c.QualityScore = 1.0
		return
	}

	for _, r := range repairs {
		if r.TryRepair(c, tolerance) {
			c.MathValid = true
			c.MathDiff = round2(mathError(c))
			c.QualityScore = 1.0
			return
		}
	}
	c.QualityScore = 0.5
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
