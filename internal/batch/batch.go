// Package batch runs the consolidation pipeline over a directory of source
// documents with a bounded worker pool. Documents are isolated: one failing
// or degenerate document never aborts its siblings.
package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/config"
	"github.com/agenthands/lossrun/internal/core"
	"github.com/agenthands/lossrun/internal/docsource"
)

type Processor struct {
	Cfg          config.BatchConfig
	Consolidator *core.Consolidator
	Loader       *docsource.Loader
	Log          *zap.Logger
}

func NewProcessor(cfg config.BatchConfig, c *core.Consolidator, loader *docsource.Loader, log *zap.Logger) *Processor {
	return &Processor{Cfg: cfg, Consolidator: c, Loader: loader, Log: log}
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// FileResult is the per-document line of the batch report.
type FileResult struct {
	Filename       string  `json:"filename"`
	Status         string  `json:"status"`
	ClaimsCount    int     `json:"claims_count"`
	InvalidClaims  int     `json:"invalid_claims"`
	ProcessingSecs float64 `json:"processing_time_seconds"`
	SessionID      string  `json:"session_id,omitempty"`
	OutputDir      string  `json:"output_dir,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type Report struct {
	StartedAt   string       `json:"started_at"`
	FinishedAt  string       `json:"finished_at"`
	InputDir    string       `json:"input_dir"`
	TotalFiles  int          `json:"total_files"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	TotalClaims int          `json:"total_claims"`
	Files       []FileResult `json:"files"`
}

// Run processes every supported file under the input directory and writes the
// batch report and summary into the output directory.
func (p *Processor) Run(ctx context.Context) (*Report, error) {
	files, err := p.listSources()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source documents found in %s", p.Cfg.InputDir)
	}
	if err := os.MkdirAll(p.Cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	started := time.Now().UTC()
	p.Log.Info("batch started",
		zap.Int("files", len(files)),
		zap.Int("workers", p.workers()))

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- p.processOne(ctx, path)
			}
		}()
	}
	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	report := &Report{
		StartedAt: started.Format(time.RFC3339),
		InputDir:  p.Cfg.InputDir,
	}
	for r := range results {
		report.Files = append(report.Files, r)
		if r.Status == StatusSuccess {
			report.Succeeded++
			report.TotalClaims += r.ClaimsCount
		} else {
			report.Failed++
		}
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Filename < report.Files[j].Filename
	})
	report.TotalFiles = len(report.Files)
	report.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	if err := p.writeReport(report, started); err != nil {
		return report, err
	}

	p.Log.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("claims", report.TotalClaims),
		zap.Duration("elapsed", time.Since(started)))
	return report, nil
}

func (p *Processor) processOne(ctx context.Context, path string) FileResult {
	name := filepath.Base(path)
	started := time.Now()
	log := p.Log.With(zap.String("file", name))

	doc, err := p.Loader.Load(path)
	if err != nil {
		log.Error("source load failed", zap.Error(err))
		return FileResult{
			Filename:       name,
			Status:         StatusFailed,
			ProcessingSecs: time.Since(started).Seconds(),
			Error:          err.Error(),
		}
	}

	result, err := p.Consolidator.Run(ctx, doc, core.RunOptions{
		SourceName: name,
		OutputDir:  p.Cfg.OutputDir,
	})
	if err != nil {
		log.Error("consolidation failed", zap.Error(err))
		return FileResult{
			Filename:       name,
			Status:         StatusFailed,
			ProcessingSecs: time.Since(started).Seconds(),
			Error:          err.Error(),
		}
	}

	fr := FileResult{
		Filename:       name,
		ClaimsCount:    len(result.Report.Claims),
		InvalidClaims:  result.Analysis.InvalidClaims,
		ProcessingSecs: time.Since(started).Seconds(),
		SessionID:      result.SessionID,
		OutputDir:      result.SessionDir,
	}
	if result.Degenerate() {
		fr.Status = StatusFailed
		fr.Error = core.ErrNoUsableRecords.Error()
	} else {
		fr.Status = StatusSuccess
	}
	return fr
}

func (p *Processor) listSources() ([]string, error) {
	entries, err := os.ReadDir(p.Cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt", ".text":
			files = append(files, filepath.Join(p.Cfg.InputDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *Processor) workers() int {
	if p.Cfg.Workers < 1 {
		return 1
	}
	return p.Cfg.Workers
}

// writeReport persists batch_report_<ts>.json and batch_summary_<ts>.csv.
func (p *Processor) writeReport(report *Report, started time.Time) error {
	ts := started.Format("20060102_150405")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch report: %w", err)
	}
	jsonPath := filepath.Join(p.Cfg.OutputDir, "batch_report_"+ts+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write batch report: %w", err)
	}

	csvPath := filepath.Join(p.Cfg.OutputDir, "batch_summary_"+ts+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("write batch summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "status", "claims", "invalid_claims", "seconds", "session_id", "error"}); err != nil {
		return fmt.Errorf("write batch summary: %w", err)
	}
	for _, r := range report.Files {
		row := []string{
			r.Filename,
			r.Status,
			strconv.Itoa(r.ClaimsCount),
			strconv.Itoa(r.InvalidClaims),
			strconv.FormatFloat(r.ProcessingSecs, 'f', 2, 64),
			r.SessionID,
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write batch summary: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
