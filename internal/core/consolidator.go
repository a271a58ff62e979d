// Package core wires the consolidation stages into one per-document run:
// master-list discovery, boundary chunking, per-chunk constrained
// extraction, gap recovery, math correction, and the final merge. Stages run
// sequentially; every oracle failure is stage-local and the run always
// produces its best available partial result.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/config"
	"github.com/agenthands/lossrun/internal/core/chunker"
	"github.com/agenthands/lossrun/internal/core/discovery"
	"github.com/agenthands/lossrun/internal/core/extraction"
	"github.com/agenthands/lossrun/internal/core/merge"
	"github.com/agenthands/lossrun/internal/core/model"
	"github.com/agenthands/lossrun/internal/core/normalize"
	"github.com/agenthands/lossrun/internal/core/recovery"
	"github.com/agenthands/lossrun/internal/core/score"
	"github.com/agenthands/lossrun/internal/llm"
)

// ErrNoUsableRecords marks a run that exhausted every stage with zero usable
// records. The batch layer surfaces it as a per-document failure; it never
// aborts sibling documents.
var ErrNoUsableRecords = errors.New("consolidation produced no usable records")

type Consolidator struct {
	LLM        llm.Client
	Chunker    *chunker.Detector
	Discoverer *discovery.Discoverer
	Extractor  *extraction.Extractor
	Recovery   *recovery.Loop
	Repairs    []score.Repair
	Cfg        config.PipelineConfig
	Log        *zap.Logger
}

func NewConsolidator(client llm.Client, cfg config.PipelineConfig, log *zap.Logger) *Consolidator {
	ex := extraction.NewExtractor(client, log, cfg.AnalysisMaxTokens, cfg.ExtractionMaxTokens)
	return &Consolidator{
		LLM:        client,
		Chunker:    chunker.NewDetector(client, log, cfg.DiscoveryTextCap, cfg.DetectionMaxTokens),
		Discoverer: discovery.NewDiscoverer(client, log, cfg.DiscoveryTextCap, cfg.DetectionMaxTokens),
		Extractor:  ex,
		Recovery:   recovery.NewLoop(ex, log, cfg.RecoveryBatchSize, cfg.CorrectionBatchSize, cfg.BatchAttempts),
		Repairs:    score.DefaultRepairs(),
		Cfg:        cfg,
		Log:        log,
	}
}

// RunOptions carries the per-run context that used to live as mutable state
// on the extractor instance. OutputDir empty disables artifact writing.
type RunOptions struct {
	SourceName  string
	OutputDir   string
	TargetClaim string
}

// Run consolidates one document. It always returns a result, even a
// degenerate one with zero claims; the only errors are artifact-write
// failures in the session directory.
func (c *Consolidator) Run(ctx context.Context, doc model.Document, opts RunOptions) (*Result, error) {
	started := time.Now().UTC()
	sessionID := newSessionID(started, opts.SourceName)
	log := c.Log.With(zap.String("session", sessionID))

	log.Info("consolidation started",
		zap.String("source", opts.SourceName),
		zap.Int("chars", len(doc.Text)))

	var report model.Report
	var chunkingReport *ChunkingReport

	if opts.TargetClaim != "" {
		report = c.runTargeted(ctx, doc.Text, opts.TargetClaim)
	} else {
		report, chunkingReport = c.runFull(ctx, doc.Text, log)
	}

	result := buildResult(sessionID, started, doc, report, chunkingReport, opts)
	if opts.OutputDir != "" {
		dir, err := writeArtifacts(opts.OutputDir, sessionID, doc, result, chunkingReport)
		if err != nil {
			return nil, err
		}
		result.SessionDir = dir
	}

	log.Info("consolidation finished",
		zap.Int("claims", len(report.Claims)),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

// runFull is the complete pipeline: discovery, chunking, per-chunk
// extraction, recovery, correction, merge.
func (c *Consolidator) runFull(ctx context.Context, text string, log *zap.Logger) (model.Report, *ChunkingReport) {
	master := c.Discoverer.Discover(ctx, text)

	boundaries := c.Chunker.Detect(ctx, text)
	chunks := chunker.Split(text, boundaries, c.Cfg.BoundaryLeadIn)

	var chunkingReport *ChunkingReport
	if len(chunks) > 1 {
		chunkingReport = newChunkingReport(text, chunks)
	}

	var candidates []model.Claim
	var policyValues []string
	var insuredName, reportDate, policyPeriod string

	for i, chunk := range chunks {
		pass := model.PassInitial
		if len(chunks) > 1 {
			pass = model.ChunkPass(i)
		}
		chunkReport, err := c.Extractor.Extract(ctx, chunk.Text, master, pass)
		if err != nil {
			log.Warn("chunk extraction failed",
				zap.String("section", chunk.SectionLabel),
				zap.Error(err))
			continue
		}
		candidates = append(candidates, chunkReport.Claims...)
		if chunkReport.PolicyNumber != "" {
			policyValues = append(policyValues, chunkReport.PolicyNumber)
		}
		if insuredName == "" {
			insuredName = chunkReport.InsuredName
		}
		if reportDate == "" {
			reportDate = chunkReport.ReportDate
		}
		if policyPeriod == "" {
			policyPeriod = chunkReport.PolicyPeriod
		}
	}

	c.prepare(candidates)

	// Gap recovery: target only master-list identifiers no candidate covers.
	if missing := recovery.Missing(master, candidates); len(missing) > 0 {
		recovered := c.Recovery.Recover(ctx, text, missing)
		c.prepare(recovered)
		candidates = append(candidates, recovered...)
	}

	// Math correction: re-query identifiers that still fail validation.
	if failing := failingNumbers(candidates); len(failing) > 0 {
		corrected := c.Recovery.Correct(ctx, text, failing)
		c.prepare(corrected)
		candidates = append(candidates, corrected...)
	}

	var allow map[string]bool
	if len(master) > 0 {
		allow = discovery.Identifiers(master)
	}
	final := merge.Consolidate(candidates, allow)

	// Policy-metadata collapse only applies across chunks. A single-chunk run
	// passes the oracle's value through, including an absent one.
	var policyNumber string
	if len(chunks) > 1 {
		policyNumber = merge.CollapsePolicy(policyValues)
	} else if len(policyValues) > 0 {
		policyNumber = policyValues[0]
	}

	return model.Report{
		PolicyNumber: policyNumber,
		InsuredName:  insuredName,
		ReportDate:   reportDate,
		PolicyPeriod: policyPeriod,
		Claims:       final,
	}, chunkingReport
}

// runTargeted extracts a single requested claim, bypassing discovery and
// chunking.
func (c *Consolidator) runTargeted(ctx context.Context, text, claimNumber string) model.Report {
	claims, err := c.Extractor.ExtractTargeted(ctx, text, []string{claimNumber}, false, model.PassInitial)
	if err != nil {
		c.Log.Warn("targeted extraction failed",
			zap.String("claim", claimNumber), zap.Error(err))
	}
	c.prepare(claims)
	return model.Report{Claims: merge.Consolidate(claims, nil)}
}

// prepare normalizes and scores a batch of candidates in place.
func (c *Consolidator) prepare(claims []model.Claim) {
	for i := range claims {
		normalize.Claim(&claims[i])
		score.Claim(&claims[i], c.Cfg.MathTolerance, c.Repairs)
	}
}

// failingNumbers lists the distinct claim numbers with no math-valid
// candidate. A number is only "failing" when every candidate carrying it is
// invalid: a later pass may already have produced a valid version.
func failingNumbers(candidates []model.Claim) []string {
	valid := make(map[string]bool)
	for _, c := range candidates {
		if c.MathValid {
			valid[c.ClaimNumber] = true
		}
	}
	var failing []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.ClaimNumber == "" || c.MathValid || valid[c.ClaimNumber] || seen[c.ClaimNumber] {
			continue
		}
		seen[c.ClaimNumber] = true
		failing = append(failing, c.ClaimNumber)
	}
	return failing
}

func newSessionID(ts time.Time, sourceName string) string {
	slug := slugify(sourceName)
	if slug == "" {
		slug = uuid.NewString()[:8]
	}
	return ts.Format("20060102_150405") + "_" + slug + "_" + uuid.NewString()[:8]
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
		if len(out) >= 20 {
			break
		}
	}
	return string(out)
}
