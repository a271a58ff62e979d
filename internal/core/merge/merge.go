// Package merge consolidates candidate claims from every pass into the final
// record set: one winner per claim number, phantom calibration names
// filtered, policy-level metadata collapsed across chunks.
package merge

import (
	"sort"
	"strings"

	"github.com/agenthands/lossrun/internal/core/model"
)

// Consolidate groups candidates by claim number and keeps one winner per
// group. Claims with an empty number are dropped. When allow is non-empty it
// is a hard allow-list: candidates with identifiers outside it are dropped,
// not corrected. Output order follows first appearance of each identifier.
func Consolidate(candidates []model.Claim, allow map[string]bool) []model.Claim {
	winners := make(map[string]model.Claim)
	var order []string

	for _, c := range candidates {
		num := strings.TrimSpace(c.ClaimNumber)
		if num == "" {
			continue
		}
		if len(allow) > 0 && !allow[num] {
			continue
		}
		existing, seen := winners[num]
		if !seen {
			winners[num] = c
			order = append(order, num)
			continue
		}
		if challengerWins(existing, c) {
			winners[num] = c
		}
	}

	out := make([]model.Claim, 0, len(order))
	for _, num := range order {
		w := winners[num]
		if isPhantom(w.EmployeeName) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// challengerWins decides whether the new candidate replaces the incumbent:
// higher quality score first, then more populated financial fields, then the
// earlier source pass. A full tie keeps the incumbent (first seen wins).
func challengerWins(incumbent, challenger model.Claim) bool {
	if challenger.QualityScore != incumbent.QualityScore {
		return challenger.QualityScore > incumbent.QualityScore
	}
	ci, ii := challenger.NonZeroFinancials(), incumbent.NonZeroFinancials()
	if ci != ii {
		return ci > ii
	}
	return challenger.SourcePass.Rank() < incumbent.SourcePass.Rank()
}

// CollapsePolicy reduces the per-chunk policy identifiers to one value: the
// shared identifier when all chunks agree, a sorted comma-joined set when
// they differ, "Multiple" when nothing was reported.
func CollapsePolicy(values []string) string {
	distinct := make(map[string]bool)
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			distinct[v] = true
		}
	}
	switch len(distinct) {
	case 0:
		return "Multiple"
	case 1:
		for v := range distinct {
			return v
		}
	}
	sorted := make([]string, 0, len(distinct))
	for v := range distinct {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
