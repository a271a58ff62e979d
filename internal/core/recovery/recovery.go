// Package recovery re-queries the oracle for identifiers the main extraction
// pass missed (gap recovery) and for records whose financial math does not
// reconcile (correction). Both loops are append-only: they add candidates to
// the pool and never overwrite existing ones; the merge stage resolves
// duplicates.
package recovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/extraction"
	"github.com/agenthands/lossrun/internal/core/model"
)

type Loop struct {
	Extractor           *extraction.Extractor
	Log                 *zap.Logger
	RecoveryBatchSize   int
	CorrectionBatchSize int
	BatchAttempts       int
}

func NewLoop(ex *extraction.Extractor, log *zap.Logger, recoveryBatch, correctionBatch, attempts int) *Loop {
	return &Loop{
		Extractor:           ex,
		Log:                 log,
		RecoveryBatchSize:   recoveryBatch,
		CorrectionBatchSize: correctionBatch,
		BatchAttempts:       attempts,
	}
}

// Missing computes the master-list identifiers that no candidate covers.
// Order follows the master list so recovery batches are deterministic.
func Missing(master []model.MasterListEntry, candidates []model.Claim) []string {
	have := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		have[c.ClaimNumber] = true
	}
	var missing []string
	for _, e := range master {
		if !have[e.ClaimNumber] {
			missing = append(missing, e.ClaimNumber)
		}
	}
	return missing
}

// Recover re-extracts the missing identifiers in fixed-size batches. A batch
// attempt succeeds as soon as the oracle returns at least one record for it;
// a failed batch is logged and skipped; it never blocks the rest of the
// pass. Recovered records are returned for appending to the candidate pool.
func (l *Loop) Recover(ctx context.Context, text string, missing []string) []model.Claim {
	var recovered []model.Claim
	for _, batch := range batches(missing, l.RecoveryBatchSize) {
		claims := l.tryBatch(ctx, text, batch, false, model.PassRecovery)
		recovered = append(recovered, claims...)
	}
	if len(missing) > 0 {
		l.Log.Info("gap recovery finished",
			zap.Int("missing", len(missing)),
			zap.Int("recovered", len(recovered)))
	}
	return recovered
}

// Correct re-extracts math-invalid identifiers with the failure-mode context
// attached to the prompt. Same append-only, batch-tolerant discipline as
// Recover.
func (l *Loop) Correct(ctx context.Context, text string, failing []string) []model.Claim {
	var corrected []model.Claim
	for _, batch := range batches(failing, l.CorrectionBatchSize) {
		claims := l.tryBatch(ctx, text, batch, true, model.PassCorrection)
		corrected = append(corrected, claims...)
	}
	if len(failing) > 0 {
		l.Log.Info("math correction finished",
			zap.Int("failing", len(failing)),
			zap.Int("corrected", len(corrected)))
	}
	return corrected
}

func (l *Loop) tryBatch(ctx context.Context, text string, batch []string, correction bool, pass model.Pass) []model.Claim {
	attempts := l.BatchAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		claims, err := l.Extractor.ExtractTargeted(ctx, text, batch, correction, pass)
		if err != nil {
			l.Log.Warn("targeted extraction attempt failed",
				zap.Strings("batch", batch),
				zap.Int("attempt", attempt),
				zap.Bool("correction", correction),
				zap.Error(err))
			continue
		}
		if len(claims) > 0 {
			return claims
		}
	}
	return nil
}

func batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
