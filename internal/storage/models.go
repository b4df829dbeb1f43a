package storage

import (
	"time"

	"github.com/bull/fec-legal-docs/internal/citation"
)

// AdvisoryOpinion is the denormalized search document for one opinion.
// Field names are the wire contract with index consumers.
type AdvisoryOpinion struct {
	No                  string                `json:"no"`
	Name                string                `json:"name"`
	Summary             string                `json:"summary"`
	IssueDate           *time.Time            `json:"issue_date"`
	IsPending           bool                  `json:"is_pending"`
	AOCitations         []citation.Opinion    `json:"ao_citations"`
	AOsCitedBy          []citation.Opinion    `json:"aos_cited_by"`
	StatutoryCitations  []citation.Statute    `json:"statutory_citations"`
	RegulatoryCitations []citation.Regulation `json:"regulatory_citations"`
	Sort1               int                   `json:"sort1"`
	Sort2               int                   `json:"sort2"`
	Documents           []Document            `json:"documents"`
	RequestorNames      []string              `json:"requestor_names"`
	RequestorTypes      []string              `json:"requestor_types"`

	// Embedding is an optional vector over name and summary. Not part of
	// the payload.
	Embedding []float32 `json:"-"`
}

// Document is one file attached to an advisory opinion.
type Document struct {
	DocumentID  int        `json:"document_id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Text        string     `json:"text"`
	Date        *time.Time `json:"date"`
	URL         string     `json:"url"`
}

// DefaultCollection is the index collection holding all legal documents.
const DefaultCollection = "docs_index"

// CategoryAdvisoryOpinions is the document category for advisory opinions.
const CategoryAdvisoryOpinions = "advisory_opinions"

// VectorName is the named vector holding opinion embeddings.
const VectorName = "content"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// dateLayout is the payload format for issue and document dates.
const dateLayout = "2006-01-02"
