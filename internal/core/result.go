package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agenthands/lossrun/internal/core/model"
)

// Result is the in-memory outcome of one consolidation run. SessionDir is
// empty when artifact writing was disabled.
type Result struct {
	SessionID  string               `json:"session_id"`
	SessionDir string               `json:"session_dir,omitempty"`
	Report     model.Report         `json:"extracted_schema"`
	Analysis   Analysis             `json:"analysis"`
	Pages      []model.PageMetadata `json:"-"`
	Summary    RunSummary           `json:"summary"`
}

// Degenerate reports whether the run produced zero usable records. The batch
// layer treats a degenerate result as a per-document failure.
func (r *Result) Degenerate() bool {
	return len(r.Report.Claims) == 0
}

// Analysis is the validation-facing projection of the final record set. It
// carries the math fields the schema artifact deliberately omits.
type Analysis struct {
	PolicyNumber  string          `json:"policy_number"`
	InsuredName   string          `json:"insured_name"`
	ReportDate    string          `json:"report_date"`
	PolicyPeriod  string          `json:"policy_period"`
	TotalClaims   int             `json:"total_claims"`
	Claims        []ClaimAnalysis `json:"claims_validation"`
	InvalidClaims int             `json:"invalid_claims"`
	Metadata      RunMetadata     `json:"extraction_metadata"`
}

type ClaimAnalysis struct {
	ClaimNumber     string  `json:"claim_number"`
	MathValid       bool    `json:"math_valid"`
	MathDiff        float64 `json:"math_diff"`
	ConfidenceScore float64 `json:"confidence_score"`
	SourcePass      string  `json:"source_pass"`
}

type RunMetadata struct {
	ExtractionDate string `json:"extraction_date"`
	SourceFile     string `json:"source_file,omitempty"`
	TargetClaim    string `json:"target_claim,omitempty"`
	NumPages       int    `json:"num_pages"`
	Chunked        bool   `json:"chunked"`
}

type RunSummary struct {
	TotalPages    int     `json:"total_pages"`
	ScannedPages  int     `json:"scanned_pages"`
	AvgConfidence float64 `json:"avg_confidence"`
	ClaimsCount   int     `json:"claims_count"`
}

// ChunkingReport records how the document was split, for post-hoc review of
// boundary detection quality.
type ChunkingReport struct {
	TotalChars int            `json:"total_chars"`
	NumChunks  int            `json:"num_chunks"`
	Chunks     []ChunkSummary `json:"chunks"`
}

type ChunkSummary struct {
	SectionLabel string `json:"section_label"`
	Chars        int    `json:"chars"`
	Preview      string `json:"preview"`
}

func newChunkingReport(text string, chunks []model.Chunk) *ChunkingReport {
	report := &ChunkingReport{TotalChars: len(text), NumChunks: len(chunks)}
	for _, c := range chunks {
		preview := c.Text
		if len(preview) > 120 {
			preview = preview[:120]
		}
		report.Chunks = append(report.Chunks, ChunkSummary{
			SectionLabel: c.SectionLabel,
			Chars:        len(c.Text),
			Preview:      preview,
		})
	}
	return report
}

func buildResult(sessionID string, started time.Time, doc model.Document, report model.Report, chunking *ChunkingReport, opts RunOptions) *Result {
	analysis := Analysis{
		PolicyNumber: report.PolicyNumber,
		InsuredName:  report.InsuredName,
		ReportDate:   report.ReportDate,
		PolicyPeriod: report.PolicyPeriod,
		TotalClaims:  len(report.Claims),
		Metadata: RunMetadata{
			ExtractionDate: started.Format(time.RFC3339),
			SourceFile:     opts.SourceName,
			TargetClaim:    opts.TargetClaim,
			NumPages:       len(doc.Pages),
			Chunked:        chunking != nil,
		},
	}
	for _, c := range report.Claims {
		analysis.Claims = append(analysis.Claims, ClaimAnalysis{
			ClaimNumber:     c.ClaimNumber,
			MathValid:       c.MathValid,
			MathDiff:        c.MathDiff,
			ConfidenceScore: c.ConfidenceScore,
			SourcePass:      string(c.SourcePass),
		})
		if !c.MathValid {
			analysis.InvalidClaims++
		}
	}

	return &Result{
		SessionID: sessionID,
		Report:    report,
		Analysis:  analysis,
		Pages:     doc.Pages,
		Summary:   summarizePages(doc.Pages, len(report.Claims)),
	}
}

func summarizePages(pages []model.PageMetadata, claims int) RunSummary {
	s := RunSummary{TotalPages: len(pages), ClaimsCount: claims}
	if len(pages) == 0 {
		return s
	}
	var sum float64
	for _, p := range pages {
		if p.IsScanned {
			s.ScannedPages++
		}
		sum += p.Confidence
	}
	s.AvgConfidence = sum / float64(len(pages))
	return s
}

// verificationPackage bundles everything a human reviewer needs to audit a
// run against the source text.
type verificationPackage struct {
	SessionID string               `json:"session_id"`
	Source    string               `json:"source_file,omitempty"`
	Pages     []model.PageMetadata `json:"pages"`
	Schema    model.Report         `json:"extracted_schema"`
	Analysis  Analysis             `json:"analysis"`
	Summary   RunSummary           `json:"summary"`
}

// writeArtifacts persists the session artifacts under
// <outputDir>/extraction_<sessionID>/ and returns the session directory.
func writeArtifacts(outputDir, sessionID string, doc model.Document, result *Result, chunking *ChunkingReport) (string, error) {
	dir := filepath.Join(outputDir, "extraction_"+sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "extracted_text.txt"), []byte(doc.Text), 0o644); err != nil {
		return "", fmt.Errorf("write extracted text: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "extracted_schema.json"), result.Report); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "analysis.json"), result.Analysis); err != nil {
		return "", err
	}
	if chunking != nil {
		if err := writeJSON(filepath.Join(dir, "chunking_report.json"), chunking); err != nil {
			return "", err
		}
	}
	pkg := verificationPackage{
		SessionID: sessionID,
		Source:    result.Analysis.Metadata.SourceFile,
		Pages:     doc.Pages,
		Schema:    result.Report,
		Analysis:  result.Analysis,
		Summary:   result.Summary,
	}
	if err := writeJSON(filepath.Join(dir, "verification_package.json"), pkg); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
