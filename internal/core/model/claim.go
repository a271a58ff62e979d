package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Pass identifies which extraction pass produced a candidate claim.
// Chunk passes carry their index ("chunk_3") so merge tie-breaks stay
// deterministic.
type Pass string

const (
	PassInitial    Pass = "initial"
	PassRecovery   Pass = "recovery"
	PassCorrection Pass = "correction"
)

// ChunkPass returns the pass label for the n-th chunk (zero-based).
func ChunkPass(n int) Pass {
	return Pass("chunk_" + strconv.Itoa(n))
}

// Rank orders passes for merge tie-breaking: earlier passes win when quality
// and field richness are equal.
func (p Pass) Rank() int {
	switch {
	case p == PassInitial:
		return 0
	case strings.HasPrefix(string(p), "chunk_"):
		return 1
	case p == PassRecovery:
		return 2
	case p == PassCorrection:
		return 3
	}
	return 4
}

// Money tolerates the oracle returning financial amounts either as JSON
// numbers or as currency-formatted strings ("$51,068.57"). JSON numbers are
// parsed as-is, so exponent notation survives intact; only quoted strings
// that fail a direct parse get currency characters stripped. An empty or
// unparsable value decodes to zero.
type Money float64

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = 0
		return nil
	}
	quoted := len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
	if quoted {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*m = Money(v)
		return nil
	}
	if !quoted {
		*m = 0
		return nil
	}
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			sb.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = Money(v)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(m))
}

// Claim is one attempted extraction of one claim. Several claims may share a
// ClaimNumber across passes; the merge stage keeps one winner per number.
// Scoring fields (QualityScore, MathValid, MathDiff) and the source pass are
// internal and never serialized with the claim itself: the analysis artifact
// carries its own projection of them.
type Claim struct {
	EmployeeName      string `json:"employee_name"`
	ClaimNumber       string `json:"claim_number"`
	InjuryDateTime    string `json:"injury_date_time"`
	ClaimYear         int    `json:"claim_year,omitempty"`
	Status            string `json:"status"`
	InjuryDescription string `json:"injury_description,omitempty"`
	BodyPart          string `json:"body_part,omitempty"`
	InjuryType        string `json:"injury_type,omitempty"`
	ClaimClass        string `json:"claim_class,omitempty"`

	MedicalPaid      Money `json:"medical_paid"`
	MedicalReserve   Money `json:"medical_reserve"`
	IndemnityPaid    Money `json:"indemnity_paid"`
	IndemnityReserve Money `json:"indemnity_reserve"`
	ExpensePaid      Money `json:"expense_paid"`
	ExpenseReserve   Money `json:"expense_reserve"`
	Recovery         Money `json:"recovery"`
	Deductible       Money `json:"deductible"`
	TotalIncurred    Money `json:"total_incurred"`

	ConfidenceScore float64 `json:"confidence_score,omitempty"`

	QualityScore float64 `json:"-"`
	MathValid    bool    `json:"-"`
	MathDiff     float64 `json:"-"`
	SourcePass   Pass    `json:"-"`
}

// financialFields lists the amount accessors used for richness comparison.
func (c *Claim) FinancialValues() []float64 {
	return []float64{
		float64(c.MedicalPaid), float64(c.MedicalReserve),
		float64(c.IndemnityPaid), float64(c.IndemnityReserve),
		float64(c.ExpensePaid), float64(c.ExpenseReserve),
		float64(c.Recovery), float64(c.Deductible), float64(c.TotalIncurred),
	}
}

// NonZeroFinancials counts populated financial fields; richer records win
// merge ties.
func (c *Claim) NonZeroFinancials() int {
	n := 0
	for _, v := range c.FinancialValues() {
		if v > 0 {
			n++
		}
	}
	return n
}

// Report is the consolidated per-document output: policy-level metadata plus
// the validated claim set.
type Report struct {
	PolicyNumber string  `json:"policy_number"`
	InsuredName  string  `json:"insured_name"`
	ReportDate   string  `json:"report_date"`
	PolicyPeriod string  `json:"policy_period"`
	Claims       []Claim `json:"claims"`
}
