// Package chunker splits a document into per-policy sections. The oracle
// proposes section headers as verbatim snippets; snippets that do not occur
// literally in the text are discarded (hallucination guard). Chunking is an
// optimization: any failure degrades to single-chunk processing.
package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/common"
	"github.com/agenthands/lossrun/internal/core/model"
	"github.com/agenthands/lossrun/internal/llm"
)

// UnknownSection labels the single chunk used when no boundaries exist.
const UnknownSection = "Unknown"

// InitialSection labels preamble content preceding the first boundary.
const InitialSection = "Initial Section"

type Detector struct {
	LLM       llm.Client
	Log       *zap.Logger
	TextCap   int
	MaxTokens int
}

func NewDetector(client llm.Client, log *zap.Logger, textCap, maxTokens int) *Detector {
	return &Detector{LLM: client, Log: log, TextCap: textCap, MaxTokens: maxTokens}
}

type detectedPolicy struct {
	PolicyNumber  string `json:"policy_number"`
	HeaderSnippet string `json:"header_snippet"`
}

type detectResponse struct {
	Policies []detectedPolicy `json:"policies"`
}

const detectPromptFmt = `Analyze the following insurance document text and identify all UNIQUE policy sections.
Look for "Policy Number", "Policy #", "Pol #", "NUMBER: [ID]" or similar headers that start a new section for a specific policy.
Note: Policy numbers may be on the line BELOW the label "Policy Number".

Return a JSON object with a list of detected policies and the EXACT snippet of text that identifies the policy header (and the policy number itself).

Example Response:
{
  "policies": [
    {
      "policy_number": "N9WC603272",
      "header_snippet": "Policy Number: N9WC603272"
    },
    {
      "policy_number": "SWC1364773",
      "header_snippet": "Policy Number\nSWC1364773"
    }
  ]
}

DOCUMENT TEXT:
%s
`

// Detect asks the oracle for policy section headers and locates each
// returned snippet's first literal occurrence in text. Boundaries are sorted
// by offset; boundaries sharing an offset keep the first. On any oracle or
// parse failure Detect returns an empty list and the caller falls back to
// single-chunk processing.
func (d *Detector) Detect(ctx context.Context, text string) []model.Boundary {
	preview := text
	if d.TextCap > 0 && len(preview) > d.TextCap {
		preview = preview[:d.TextCap]
	}

	response, err := d.LLM.Generate(ctx, fmt.Sprintf(detectPromptFmt, preview), d.MaxTokens)
	if err != nil {
		d.Log.Warn("policy boundary detection failed", zap.Error(err))
		return nil
	}
	result, err := common.ParseJSON[detectResponse](response)
	if err != nil {
		d.Log.Warn("policy boundary response unparsable", zap.Error(err))
		return nil
	}

	var boundaries []model.Boundary
	for _, p := range result.Policies {
		if p.HeaderSnippet == "" {
			continue
		}
		idx := strings.Index(text, p.HeaderSnippet)
		if idx == -1 {
			// The oracle invented a snippet; drop it silently.
			continue
		}
		boundaries = append(boundaries, model.Boundary{
			PolicyNumber:  p.PolicyNumber,
			StartOffset:   idx,
			HeaderSnippet: p.HeaderSnippet,
		})
	}

	sort.SliceStable(boundaries, func(i, j int) bool {
		return boundaries[i].StartOffset < boundaries[j].StartOffset
	})

	unique := boundaries[:0]
	lastOffset := -1
	for _, b := range boundaries {
		if b.StartOffset != lastOffset {
			unique = append(unique, b)
			lastOffset = b.StartOffset
		}
	}

	d.Log.Info("detected policy boundaries", zap.Int("count", len(unique)))
	return unique
}

// Split cuts text into chunks at the given boundaries. With zero or one
// boundary the whole document is a single "Unknown" chunk: single-section
// documents are not needlessly split. Content preceding the first boundary
// by more than leadIn characters becomes an "Initial Section" chunk so
// preamble data is not lost.
func Split(text string, boundaries []model.Boundary, leadIn int) []model.Chunk {
	if len(boundaries) <= 1 {
		return []model.Chunk{{SectionLabel: UnknownSection, Text: text}}
	}

	var chunks []model.Chunk
	if boundaries[0].StartOffset > leadIn {
		pre := strings.TrimSpace(text[:boundaries[0].StartOffset])
		if pre != "" {
			chunks = append(chunks, model.Chunk{SectionLabel: InitialSection, Text: pre})
		}
	}

	for i, b := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].StartOffset
		}
		chunks = append(chunks, model.Chunk{
			SectionLabel: b.PolicyNumber,
			Text:         strings.TrimSpace(text[b.StartOffset:end]),
		})
	}
	return chunks
}
