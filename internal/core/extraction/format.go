package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/common"
)

// FormatInfo is the oracle's classification of how financial data is laid
// out in the current text, including a layout-specific extraction rule the
// constrained extraction prompt embeds verbatim.
type FormatInfo struct {
	Insurer          string           `json:"insurer"`
	FormatType       string           `json:"format_type"`
	ClaimLayout      string           `json:"claim_layout"`
	FinancialMapping FinancialMapping `json:"financial_mapping"`
	SpecialNotes     string           `json:"special_notes"`
	Confidence       float64          `json:"confidence"`
}

type FinancialMapping struct {
	ColumnOrder        []string `json:"column_order"`
	DynamicInstruction string   `json:"dynamic_instruction"`
}

const (
	FormatSimpleColumns   = "simple_columns"
	FormatComplexMultiRow = "complex_multi_row"
	FormatUnknown         = "unknown"
)

// formatSampleLen bounds how much text format analysis sees; layout is
// established within the first pages.
const formatSampleLen = 8000

const analyzeFormatPromptFmt = `You are analyzing an insurance loss run report to understand its structure.

Your task: Describe HOW the data is organized in this document so we can extract it accurately.

Answer these questions:
1. What is the insurance company/carrier name?
2. How are claims organized? (one per row, multi-row per claim, one per page?)
3. How are financial amounts presented?
   - Simple columns (Ind Paid, Med Paid, etc.)?
   - Complex multi-row tables (Incurred/Paid/Reserves rows)?
4. IMPORTANT: Determine the EXACT row order for financial data (e.g., Row 1: Reserves, Row 2: Payments, Row 3: Incurred).
5. How are the numeric columns ordered? (e.g., Med, Ind, LAE/Exp, Total)

Return JSON:
{
  "insurer": "company name",
  "format_type": "simple_columns" or "complex_multi_row" or "mixed",
  "claim_layout": "one_per_row" or "multi_row_per_claim" or "one_per_page",
  "financial_mapping": {
    "column_order": ["field1", "field2"],
    "dynamic_instruction": "A custom extraction rule you generate specifically for this layout"
  },
  "special_notes": "any quirks or unusual formatting",
  "confidence": 0.0
}

DOCUMENT TEXT (first %d chars):
%s

Return ONLY the JSON. Ensure the dynamic_instruction is highly technical and specific about which line to read for 'Paid' vs 'Reserves'.`

// AnalyzeFormat classifies the layout of text. Failure degrades to an
// unknown format with generic extraction rules, never to an error.
func (e *Extractor) AnalyzeFormat(ctx context.Context, text string) FormatInfo {
	sample := text
	if len(sample) > formatSampleLen {
		sample = sample[:formatSampleLen]
	}

	prompt := fmt.Sprintf(analyzeFormatPromptFmt, formatSampleLen, sample)
	response, err := e.LLM.Generate(ctx, prompt, e.AnalysisMaxTokens)
	if err != nil {
		e.Log.Warn("format analysis failed", zap.Error(err))
		return FormatInfo{FormatType: FormatUnknown}
	}
	info, err := common.ParseJSON[FormatInfo](response)
	if err != nil {
		e.Log.Warn("format analysis response unparsable", zap.Error(err))
		return FormatInfo{FormatType: FormatUnknown}
	}

	e.Log.Info("document format analyzed",
		zap.String("format_type", info.FormatType),
		zap.String("insurer", info.Insurer),
		zap.Float64("confidence", info.Confidence))
	return info
}
