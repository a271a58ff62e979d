// Package discovery produces the master list of claim identifiers believed
// to genuinely occur in a document. The list constrains extraction (hard
// allow-list) and targets gap recovery. Discovery failing or coming back
// empty is fail-open: downstream stages run unconstrained.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/common"
	"github.com/agenthands/lossrun/internal/core/model"
	"github.com/agenthands/lossrun/internal/llm"
)

type Discoverer struct {
	LLM       llm.Client
	Log       *zap.Logger
	TextCap   int
	MaxTokens int
}

func NewDiscoverer(client llm.Client, log *zap.Logger, textCap, maxTokens int) *Discoverer {
	return &Discoverer{LLM: client, Log: log, TextCap: textCap, MaxTokens: maxTokens}
}

type discoveredNumber struct {
	ClaimNumber        string  `json:"claim_number"`
	PatternDescription string  `json:"pattern_description"`
	Confidence         float64 `json:"confidence"`
	ValidationPassed   *bool   `json:"validation_passed"`
}

type discoverResponse struct {
	ClaimNumbers      []discoveredNumber `json:"claim_numbers"`
	TotalUniqueClaims int                `json:"total_unique_claims"`
	Confidence        float64            `json:"confidence"`
}

const discoverPromptFmt = `You are an expert at analyzing insurance documents and identifying claim numbers.

Your task: Analyze this insurance document and IDENTIFY ALL UNIQUE CLAIM NUMBERS.

=== CRITICAL DISTINCTION: POLICY NUMBER vs CLAIM NUMBER ===

POLICY NUMBERS identify an entire insurance policy, appear in a consistent
location on every page, and the SAME policy number covers MULTIPLE claims.
Field labels: "Policy Number", "Policy #", "Pol #".

CLAIM NUMBERS identify a SINGLE claim/incident (one employee's injury). Each
is UNIQUE and appears for exactly one subject. Field labels: "Claim #",
"Claim No", "Claim Number", "Converted #".

GOLDEN RULE: if the SAME number appears as a header on multiple claim
sections it is a POLICY number, not a claim number. Extract claim numbers
EXACTLY as written; never invent or append suffixes.

STRICT EXCLUSIONS: policy numbers, page numbers, dates, dollar amounts,
employee IDs, report IDs.

=== SELF-VALIDATION ===

For each detected number run these checks and report the result:
1. Uniqueness: a number repeated on every page or for multiple employees is a
   policy number.
2. Context: check the label preceding the number.
3. Cross-reference: each unique employee should pair with a unique number.

Return a JSON object:
{
  "claim_numbers": [
    {
      "claim_number": "20825",
      "pattern_description": "Follows 'Claim#' label",
      "confidence": 0.95,
      "validation_passed": true
    }
  ],
  "total_unique_claims": 7,
  "confidence": 0.92
}

DOCUMENT TEXT (COMPLETE):
%s

Return ONLY the JSON. Ensure you catch EVERY claim number, especially those on later pages. Scan the ENTIRE text length.`

// Discover returns the master list for text, keeping only entries the oracle
// marked as passing its own validation checks. Any failure yields an empty
// list; the pipeline then runs without an allow-list.
func (d *Discoverer) Discover(ctx context.Context, text string) []model.MasterListEntry {
	capped := text
	if d.TextCap > 0 && len(capped) > d.TextCap {
		capped = capped[:d.TextCap]
	}

	response, err := d.LLM.Generate(ctx, fmt.Sprintf(discoverPromptFmt, capped), d.MaxTokens)
	if err != nil {
		d.Log.Warn("master list discovery failed", zap.Error(err))
		return nil
	}
	result, err := common.ParseJSON[discoverResponse](response)
	if err != nil {
		d.Log.Warn("master list response unparsable", zap.Error(err))
		return nil
	}

	var entries []model.MasterListEntry
	seen := make(map[string]bool)
	for _, n := range result.ClaimNumbers {
		if n.ClaimNumber == "" || seen[n.ClaimNumber] {
			continue
		}
		if n.ValidationPassed != nil && !*n.ValidationPassed {
			continue
		}
		seen[n.ClaimNumber] = true
		entries = append(entries, model.MasterListEntry{
			ClaimNumber:  n.ClaimNumber,
			Confidence:   n.Confidence,
			PatternLabel: n.PatternDescription,
		})
	}

	d.Log.Info("discovered master claim list", zap.Int("count", len(entries)))
	return entries
}

// Identifiers extracts the identifier set from a master list.
func Identifiers(entries []model.MasterListEntry) map[string]bool {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ClaimNumber] = true
	}
	return ids
}
