// Package docsource turns source files into documents the consolidation
// pipeline can run on. PDF sources go through structure-aware extraction with
// per-page confidence; plain text sources pass through as a single synthetic
// page.
package docsource

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/model"
)

type Loader struct {
	Log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	return &Loader{Log: log}
}

// Load reads the file at path and produces a Document. An unreadable or
// unsupported source is the one fatal condition in the pipeline: there is
// nothing to consolidate without text.
func (l *Loader) Load(path string) (model.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.loadPDF(path)
	case ".txt", ".text", "":
		return l.loadText(path)
	default:
		return model.Document{}, fmt.Errorf("unsupported source type %q", filepath.Ext(path))
	}
}
