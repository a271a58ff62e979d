package model

// PageMetadata describes one page as produced by the document-text source.
// The consolidation engine never reads it; it passes through to the
// verification package untouched.
type PageMetadata struct {
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
	IsScanned  bool    `json:"is_scanned"`
	Confidence float64 `json:"confidence"`
}

// Document is the immutable input to one consolidation run.
type Document struct {
	Text  string
	Pages []PageMetadata
}

// Boundary marks where a new policy section begins in the document text.
// HeaderSnippet is the verbatim text the offset was located with.
type Boundary struct {
	PolicyNumber  string
	StartOffset   int
	HeaderSnippet string
}

// Chunk is a contiguous slice of a document, labeled with the policy section
// it belongs to. Chunks live only for the duration of one run.
type Chunk struct {
	SectionLabel string
	Text         string
}

// MasterListEntry is one claim identifier the discoverer believes genuinely
// occurs in the document. The set of entries acts as a read-only allow-list
// for constrained extraction and as the target set for gap recovery.
type MasterListEntry struct {
	ClaimNumber  string  `json:"claim_number"`
	Confidence   float64 `json:"confidence"`
	PatternLabel string  `json:"pattern_description"`
}
