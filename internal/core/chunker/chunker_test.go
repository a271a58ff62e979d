package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/model"
)

const multiPolicyText = `Loss Run Report
Prepared for Acme Staffing

Policy Number: N9WC603272
Claim# 1001 Smith, Ann ...
Claim# 1002 Jones, Bob ...

Policy Number: SWC1364773
Claim# 2001 Lee, Cara ...
`

func TestDetectLocatesSnippets(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: `{
			"policies": [
				{"policy_number": "N9WC603272", "header_snippet": "Policy Number: N9WC603272"},
				{"policy_number": "SWC1364773", "header_snippet": "Policy Number: SWC1364773"},
				{"policy_number": "GHOST-1", "header_snippet": "Policy Number: GHOST-1"}
			]
		}`,
	}
	d := NewDetector(mockLLM, zap.NewNop(), 0, 1000)

	boundaries := d.Detect(context.Background(), multiPolicyText)

	// The invented GHOST-1 snippet does not occur in the text and is dropped.
	require.Len(t, boundaries, 2)
	assert.Equal(t, "N9WC603272", boundaries[0].PolicyNumber)
	assert.Equal(t, "SWC1364773", boundaries[1].PolicyNumber)
	assert.Less(t, boundaries[0].StartOffset, boundaries[1].StartOffset)
}

func TestDetectDedupsSharedOffset(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: `{
			"policies": [
				{"policy_number": "N9WC603272", "header_snippet": "Policy Number: N9WC603272"},
				{"policy_number": "N9WC603272-DUP", "header_snippet": "Policy Number: N9WC603272"}
			]
		}`,
	}
	d := NewDetector(mockLLM, zap.NewNop(), 0, 1000)

	boundaries := d.Detect(context.Background(), multiPolicyText)

	require.Len(t, boundaries, 1)
	assert.Equal(t, "N9WC603272", boundaries[0].PolicyNumber)
}

func TestDetectOracleFailure(t *testing.T) {
	d := NewDetector(&MockLLMClient{Err: errors.New("rate limited")}, zap.NewNop(), 0, 1000)
	assert.Empty(t, d.Detect(context.Background(), multiPolicyText))
}

func TestDetectUnparsableResponse(t *testing.T) {
	d := NewDetector(&MockLLMClient{Response: "no policies here, sorry"}, zap.NewNop(), 0, 1000)
	assert.Empty(t, d.Detect(context.Background(), multiPolicyText))
}

func TestSplitSingleBoundaryKeepsWholeDocument(t *testing.T) {
	boundaries := []model.Boundary{{PolicyNumber: "P1", StartOffset: 40}}
	chunks := Split(multiPolicyText, boundaries, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, UnknownSection, chunks[0].SectionLabel)
	assert.Equal(t, multiPolicyText, chunks[0].Text)
}

func TestSplitMultipleBoundaries(t *testing.T) {
	first := strings.Index(multiPolicyText, "Policy Number: N9WC603272")
	second := strings.Index(multiPolicyText, "Policy Number: SWC1364773")
	boundaries := []model.Boundary{
		{PolicyNumber: "N9WC603272", StartOffset: first},
		{PolicyNumber: "SWC1364773", StartOffset: second},
	}

	chunks := Split(multiPolicyText, boundaries, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, InitialSection, chunks[0].SectionLabel)
	assert.Contains(t, chunks[0].Text, "Acme Staffing")
	assert.Equal(t, "N9WC603272", chunks[1].SectionLabel)
	assert.Contains(t, chunks[1].Text, "Claim# 1002")
	assert.NotContains(t, chunks[1].Text, "Claim# 2001")
	assert.Equal(t, "SWC1364773", chunks[2].SectionLabel)
	assert.Contains(t, chunks[2].Text, "Claim# 2001")
}

func TestSplitShortPreambleSkipped(t *testing.T) {
	text := "x\nPolicy A data\nPolicy B data"
	boundaries := []model.Boundary{
		{PolicyNumber: "A", StartOffset: 2},
		{PolicyNumber: "B", StartOffset: 16},
	}
	chunks := Split(text, boundaries, 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].SectionLabel)
}
