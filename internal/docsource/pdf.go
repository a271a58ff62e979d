package docsource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/core/model"
)

// Pages averaging fewer extracted characters than this in an image-bearing
// PDF are treated as scanned.
const scannedPageCharThreshold = 100

const (
	digitalPageConfidence = 0.95
	scannedPageConfidence = 0.3
)

// loadPDF extracts text page by page through pdfcpu content streams and tags
// each page with a scanned-or-digital confidence. Scanned pages still
// contribute whatever text the stream carries; the confidence tells the
// caller how much to trust it.
func (l *Loader) loadPDF(path string) (model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("open pdf source: %w", err)
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return model.Document{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	hasImages := detectImageStreams(ctx)

	var all strings.Builder
	var pages []model.PageMetadata
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageText := extractPageText(ctx, pageNr)
		scanned := hasImages && len([]rune(pageText)) < scannedPageCharThreshold
		confidence := digitalPageConfidence
		if scanned {
			confidence = scannedPageConfidence
		}
		pages = append(pages, model.PageMetadata{
			PageNumber: pageNr,
			Text:       pageText,
			IsScanned:  scanned,
			Confidence: confidence,
		})
		if pageText != "" {
			if all.Len() > 0 {
				all.WriteByte('\n')
			}
			all.WriteString(pageText)
		}
	}

	if all.Len() == 0 {
		return model.Document{}, fmt.Errorf("no text content found in pdf %s", path)
	}

	scannedCount := 0
	for _, p := range pages {
		if p.IsScanned {
			scannedCount++
		}
	}
	l.Log.Info("pdf loaded",
		zap.String("path", path),
		zap.Int("pages", len(pages)),
		zap.Int("scanned_pages", scannedCount),
		zap.Int("chars", all.Len()))

	return model.Document{Text: all.String(), Pages: pages}, nil
}

func extractPageText(ctx *pdfmodel.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// detectImageStreams checks whether the PDF carries image XObjects.
func detectImageStreams(ctx *pdfmodel.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream walks content stream operators for text show and
// positioning commands.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		}

		// ' shows text on the next line.
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences including octal escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanPDFText collapses whitespace runs and drops non-printable runes.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
