// Package extraction runs the two-stage extraction protocol against the
// oracle: format analysis classifies the layout, then a single constrained
// request extracts every claim, bounded by the master identifier allow-list.
// Targeted extraction re-queries specific identifiers for gap recovery and
// math correction.
package extraction

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/common"
	"github.com/agenthands/lossrun/internal/core/model"
	"github.com/agenthands/lossrun/internal/llm"
)

type Extractor struct {
	LLM                 llm.Client
	Log                 *zap.Logger
	AnalysisMaxTokens   int
	ExtractionMaxTokens int
}

func NewExtractor(client llm.Client, log *zap.Logger, analysisMaxTokens, extractionMaxTokens int) *Extractor {
	return &Extractor{
		LLM:                 client,
		Log:                 log,
		AnalysisMaxTokens:   analysisMaxTokens,
		ExtractionMaxTokens: extractionMaxTokens,
	}
}

// Extract runs format analysis and constrained extraction over text and
// returns the resulting report with every claim tagged with pass. An oracle
// or parse failure returns an empty report and the error; callers treat it
// as zero additional records.
func (e *Extractor) Extract(ctx context.Context, text string, master []model.MasterListEntry, pass model.Pass) (model.Report, error) {
	format := e.AnalyzeFormat(ctx, text)

	prompt := buildExtractionPrompt(text, master, format)
	response, err := e.LLM.Generate(ctx, prompt, e.ExtractionMaxTokens)
	if err != nil {
		return model.Report{}, err
	}

	report, err := common.ParseJSON[model.Report](response)
	if err != nil {
		return model.Report{}, err
	}
	for i := range report.Claims {
		report.Claims[i].SourcePass = pass
	}

	e.Log.Info("extracted claims",
		zap.String("pass", string(pass)),
		zap.Int("count", len(report.Claims)))
	return report, nil
}

// ExtractTargeted re-queries the oracle for only the given claim numbers.
// With correction=true the prompt carries the math-failure context so the
// oracle re-examines column and row mapping for those identifiers.
func (e *Extractor) ExtractTargeted(ctx context.Context, text string, claimNumbers []string, correction bool, pass model.Pass) ([]model.Claim, error) {
	if len(claimNumbers) == 0 {
		return nil, nil
	}

	prompt := buildTargetedPrompt(text, claimNumbers, correction)
	response, err := e.LLM.Generate(ctx, prompt, e.ExtractionMaxTokens)
	if err != nil {
		return nil, err
	}

	result, err := common.ParseJSON[model.Report](response)
	if err != nil {
		return nil, err
	}

	// The prompt forbids identifiers outside the batch, but the oracle is
	// not trusted to comply.
	requested := make(map[string]bool, len(claimNumbers))
	for _, n := range claimNumbers {
		requested[n] = true
	}
	var claims []model.Claim
	for _, c := range result.Claims {
		if !requested[strings.TrimSpace(c.ClaimNumber)] {
			continue
		}
		c.SourcePass = pass
		claims = append(claims, c)
	}
	return claims, nil
}
