// Package normalize applies field-level cleanup to candidate claims before
// scoring. Normalization is idempotent: applying it twice yields the same
// record. Currency parsing happens earlier, at decode time, via model.Money.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agenthands/lossrun/internal/core/model"
)

var statusMap = map[string]string{
	"C": "Closed", "CL": "Closed", "CLOSED": "Closed",
	"O": "Open", "OP": "Open", "OPEN": "Open",
	"R": "Reopened", "RC": "Reopened", "REOP": "Reopened", "REOPENED": "Reopened",
}

var compKeywords = []string{"COMP", "TTD", "TPD", "PPD", "INDEMNITY", "INDEM"}
var medKeywords = []string{"MED", "MEDICAL"}

var yearRe = regexp.MustCompile(`(?:19|20)\d{2}`)

// Claim normalizes one candidate record in place.
func Claim(c *model.Claim) {
	c.ClaimNumber = strings.TrimSpace(c.ClaimNumber)

	// Status codes collapse to Open/Closed/Reopened. Unknown codes pass
	// through upper-trimmed rather than being dropped.
	rawStatus := strings.ToUpper(strings.TrimSpace(c.Status))
	if mapped, ok := statusMap[rawStatus]; ok {
		c.Status = mapped
	} else {
		c.Status = rawStatus
	}

	// Injury type keyword sets. COMP keywords take precedence: an entry like
	// "MEDICAL/TTD" asserts indemnity liability.
	rawType := strings.ToUpper(c.InjuryType)
	if containsAny(rawType, compKeywords) {
		c.InjuryType = "COMP"
	} else if containsAny(rawType, medKeywords) {
		c.InjuryType = "MED"
	}

	// A MED-only claim asserts no indemnity liability.
	if c.InjuryType == "MED" {
		c.IndemnityPaid = 0
		c.IndemnityReserve = 0
	}

	// Claim year derives from the first plausible 4-digit year in the injury
	// date, whatever format the oracle returned the date in.
	c.ClaimYear = 0
	if m := yearRe.FindString(c.InjuryDateTime); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			c.ClaimYear = y
		}
	}

	c.EmployeeName = Name(c.EmployeeName)
}

// Name converts "First [Middle] Last" into the canonical "Last, First
// [Middle]" form. Names already containing a comma are assumed canonical;
// single-token names are left alone.
func Name(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" || strings.Contains(name, ",") {
		return name
	}
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name
	}
	last := parts[len(parts)-1]
	first := strings.Join(parts[:len(parts)-1], " ")
	return last + ", " + first
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
