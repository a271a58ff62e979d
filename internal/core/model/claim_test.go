package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"plain number", `1234.5`, 1234.5},
		{"exponent number", `1.5e4`, 15000},
		{"negative exponent", `1.5e-2`, 0.015},
		{"quoted exponent", `"1.5e4"`, 15000},
		{"currency string", `"$51,068.57"`, 51068.57},
		{"negative", `"-250.00"`, -250},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
		{"non numeric", `"N/A"`, 0},
		{"prose with digits", `"Refused 2x"`, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m Money
			require.NoError(t, json.Unmarshal([]byte(tc.in), &m))
			assert.InDelta(t, tc.want, float64(m), 0.001)
		})
	}
}

func TestClaimDecodeMixedFinancials(t *testing.T) {
	raw := `{
		"employee_name": "Garcia, Maria",
		"claim_number": "WC-2023-001",
		"medical_paid": "$1,500.00",
		"medical_reserve": 250,
		"total_incurred": "1750"
	}`
	var c Claim
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, Money(1500), c.MedicalPaid)
	assert.Equal(t, Money(250), c.MedicalReserve)
	assert.Equal(t, Money(1750), c.TotalIncurred)
}

func TestClaimMarshalOmitsScoringFields(t *testing.T) {
	c := Claim{
		ClaimNumber:  "123",
		QualityScore: 1.0,
		MathValid:    true,
		MathDiff:     0.5,
		SourcePass:   PassRecovery,
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "math_valid")
	assert.NotContains(t, string(data), "quality")
	assert.NotContains(t, string(data), "recovery_pass")
	assert.NotContains(t, string(data), "source_pass")
}

func TestPassRank(t *testing.T) {
	assert.Less(t, PassInitial.Rank(), ChunkPass(0).Rank())
	assert.Equal(t, ChunkPass(0).Rank(), ChunkPass(7).Rank())
	assert.Less(t, ChunkPass(2).Rank(), PassRecovery.Rank())
	assert.Less(t, PassRecovery.Rank(), PassCorrection.Rank())
}

func TestNonZeroFinancials(t *testing.T) {
	c := Claim{MedicalPaid: 100, ExpenseReserve: 5, TotalIncurred: 105}
	assert.Equal(t, 3, c.NonZeroFinancials())
	assert.Equal(t, 0, (&Claim{}).NonZeroFinancials())
}
