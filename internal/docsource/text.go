package docsource

import (
	"fmt"
	"os"

	"github.com/agenthands/lossrun/internal/core/model"
)

// loadText reads a plain text source as one synthetic page with full
// confidence.
func (l *Loader) loadText(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("read text source: %w", err)
	}
	text := string(data)
	return model.Document{
		Text: text,
		Pages: []model.PageMetadata{{
			PageNumber: 1,
			Text:       text,
			IsScanned:  false,
			Confidence: 1.0,
		}},
	}, nil
}
