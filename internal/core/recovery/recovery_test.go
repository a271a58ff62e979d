package recovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/extraction"
	"github.com/agenthands/lossrun/internal/core/model"
)

func newTestLoop(llm *extraction.ScriptedLLMClient, recoveryBatch, correctionBatch, attempts int) *Loop {
	ex := extraction.NewExtractor(llm, zap.NewNop(), 1500, 8000)
	return NewLoop(ex, zap.NewNop(), recoveryBatch, correctionBatch, attempts)
}

func TestMissing(t *testing.T) {
	master := []model.MasterListEntry{
		{ClaimNumber: "A"}, {ClaimNumber: "B"}, {ClaimNumber: "C"},
	}
	candidates := []model.Claim{{ClaimNumber: "A"}}

	assert.Equal(t, []string{"B", "C"}, Missing(master, candidates))
	assert.Empty(t, Missing(master, []model.Claim{
		{ClaimNumber: "A"}, {ClaimNumber: "B"}, {ClaimNumber: "C"},
	}))
	assert.Empty(t, Missing(nil, candidates))
}

func TestRecoverBatches(t *testing.T) {
	llm := &extraction.ScriptedLLMClient{
		Responses: []string{
			`{"claims": [{"claim_number": "B"}, {"claim_number": "C"}]}`,
			`{"claims": [{"claim_number": "D"}]}`,
		},
	}
	loop := newTestLoop(llm, 2, 3, 2)

	recovered := loop.Recover(context.Background(), "text", []string{"B", "C", "D"})

	require.Len(t, llm.Prompts, 2)
	assert.Contains(t, llm.Prompts[0], "B, C")
	assert.Contains(t, llm.Prompts[1], "D")

	require.Len(t, recovered, 3)
	for _, c := range recovered {
		assert.Equal(t, model.PassRecovery, c.SourcePass)
	}
}

func TestRecoverRetriesFailedAttempt(t *testing.T) {
	llm := &extraction.ScriptedLLMClient{
		Errs:      []error{errors.New("overloaded"), nil},
		Responses: []string{"", `{"claims": [{"claim_number": "B"}]}`},
	}
	loop := newTestLoop(llm, 5, 3, 2)

	recovered := loop.Recover(context.Background(), "text", []string{"B"})

	assert.Len(t, llm.Prompts, 2)
	require.Len(t, recovered, 1)
	assert.Equal(t, "B", recovered[0].ClaimNumber)
}

func TestRecoverSkipsExhaustedBatch(t *testing.T) {
	// First batch fails both attempts; the second batch still runs.
	llm := &extraction.ScriptedLLMClient{
		Errs: []error{errors.New("down"), errors.New("down"), nil},
		Responses: []string{
			"", "",
			`{"claims": [{"claim_number": "C"}]}`,
		},
	}
	loop := newTestLoop(llm, 1, 3, 2)

	recovered := loop.Recover(context.Background(), "text", []string{"B", "C"})

	assert.Len(t, llm.Prompts, 3)
	require.Len(t, recovered, 1)
	assert.Equal(t, "C", recovered[0].ClaimNumber)
}

func TestRecoverEmptyResponseCountsAsFailure(t *testing.T) {
	llm := &extraction.ScriptedLLMClient{
		Responses: []string{`{"claims": []}`, `{"claims": []}`},
	}
	loop := newTestLoop(llm, 5, 3, 2)

	recovered := loop.Recover(context.Background(), "text", []string{"B"})

	assert.Len(t, llm.Prompts, 2)
	assert.Empty(t, recovered)
}

func TestCorrectUsesCorrectionPrompt(t *testing.T) {
	llm := &extraction.ScriptedLLMClient{
		Responses: []string{`{"claims": [{"claim_number": "X", "medical_paid": 100, "total_incurred": 100}]}`},
	}
	loop := newTestLoop(llm, 5, 3, 1)

	corrected := loop.Correct(context.Background(), "text", []string{"X"})

	require.Len(t, llm.Prompts, 1)
	assert.Contains(t, llm.Prompts[0], "MATH VALIDATION FAILED")
	require.Len(t, corrected, 1)
	assert.Equal(t, model.PassCorrection, corrected[0].SourcePass)
}

func TestCorrectBatchSize(t *testing.T) {
	llm := &extraction.ScriptedLLMClient{
		Responses: []string{
			`{"claims": [{"claim_number": "A"}]}`,
			`{"claims": [{"claim_number": "D"}]}`,
		},
	}
	loop := newTestLoop(llm, 5, 3, 1)

	loop.Correct(context.Background(), "text", []string{"A", "B", "C", "D"})

	require.Len(t, llm.Prompts, 2)
	assert.Contains(t, llm.Prompts[0], "A, B, C")
	assert.Contains(t, llm.Prompts[1], "D")
}
