package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lossrun/internal/core/model"
)

func TestConsolidateOneWinnerPerNumber(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", EmployeeName: "Lee, Cara", QualityScore: 0.5, SourcePass: model.PassInitial},
		{ClaimNumber: "A", EmployeeName: "Lee, Cara", QualityScore: 1.0, SourcePass: model.PassCorrection},
		{ClaimNumber: "B", EmployeeName: "Ruiz, Ana", QualityScore: 1.0, SourcePass: model.PassInitial},
	}

	out := Consolidate(candidates, nil)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].ClaimNumber)
	assert.Equal(t, 1.0, out[0].QualityScore)
	assert.Equal(t, model.PassCorrection, out[0].SourcePass)
	assert.Equal(t, "B", out[1].ClaimNumber)
}

func TestConsolidateQualityNeverDowngraded(t *testing.T) {
	// A later low-quality candidate never displaces a validated winner.
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0, SourcePass: model.PassInitial},
		{ClaimNumber: "A", QualityScore: 0.5, SourcePass: model.PassCorrection, MedicalPaid: 999},
	}
	out := Consolidate(candidates, nil)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].QualityScore)
	assert.Equal(t, model.Money(0), out[0].MedicalPaid)
}

func TestConsolidateRichnessTieBreak(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0, MedicalPaid: 100, SourcePass: model.PassInitial},
		{ClaimNumber: "A", QualityScore: 1.0, MedicalPaid: 100, ExpensePaid: 50, TotalIncurred: 150, SourcePass: model.PassRecovery},
	}
	out := Consolidate(candidates, nil)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].NonZeroFinancials())
}

func TestConsolidateEarlierPassWinsFullTie(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0, MedicalPaid: 100, SourcePass: model.PassRecovery},
		{ClaimNumber: "A", QualityScore: 1.0, IndemnityPaid: 100, SourcePass: model.ChunkPass(0)},
	}
	out := Consolidate(candidates, nil)
	require.Len(t, out, 1)
	assert.Equal(t, model.ChunkPass(0), out[0].SourcePass)
}

func TestConsolidateFirstSeenWinsIdenticalRank(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0, MedicalPaid: 100, SourcePass: model.ChunkPass(0), EmployeeName: "First, Seen"},
		{ClaimNumber: "A", QualityScore: 1.0, IndemnityPaid: 100, SourcePass: model.ChunkPass(1), EmployeeName: "Second, Seen"},
	}
	out := Consolidate(candidates, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "First, Seen", out[0].EmployeeName)
}

func TestConsolidateAllowList(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0},
		{ClaimNumber: "HALLUCINATED", QualityScore: 1.0},
		{ClaimNumber: "", QualityScore: 1.0},
	}
	out := Consolidate(candidates, map[string]bool{"A": true})
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].ClaimNumber)
}

func TestConsolidateNoAllowListKeepsAll(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", QualityScore: 1.0},
		{ClaimNumber: "B", QualityScore: 1.0},
	}
	assert.Len(t, Consolidate(candidates, nil), 2)
}

func TestConsolidateDropsPhantomNames(t *testing.T) {
	candidates := []model.Claim{
		{ClaimNumber: "A", EmployeeName: "John Smith", QualityScore: 1.0},
		{ClaimNumber: "B", EmployeeName: "Smith, John", QualityScore: 1.0},
		{ClaimNumber: "C", EmployeeName: "Doe, Jane", QualityScore: 1.0},
		{ClaimNumber: "D", EmployeeName: "Test Person 4", QualityScore: 1.0},
		{ClaimNumber: "E", EmployeeName: "Watson, Emma", QualityScore: 1.0},
	}
	out := Consolidate(candidates, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "E", out[0].ClaimNumber)
}

func TestIsPhantom(t *testing.T) {
	assert.True(t, isPhantom("John Smith"))
	assert.True(t, isPhantom("smith, john"))
	assert.True(t, isPhantom("Johnson, Alice"))
	assert.True(t, isPhantom("a placeholder name"))
	assert.False(t, isPhantom("Smith, Johanna"))
	assert.False(t, isPhantom("Watson, Emma"))
	assert.False(t, isPhantom(""))
}

func TestCollapsePolicy(t *testing.T) {
	assert.Equal(t, "Multiple", CollapsePolicy(nil))
	assert.Equal(t, "Multiple", CollapsePolicy([]string{"", "  "}))
	assert.Equal(t, "P1", CollapsePolicy([]string{"P1", "P1", " P1 "}))
	assert.Equal(t, "P1, P2", CollapsePolicy([]string{"P2", "P1"}))
}
