// Package advisory assembles advisory opinion search documents from the
// relational source, the citation graph and object storage.
package advisory

import (
	"context"
	"time"
)

// OpinionRow is one row of the opinion master table.
type OpinionRow struct {
	ID        int
	No        string
	Name      string
	Summary   string
	IssueDate *time.Time
}

// DocumentRow is one attached file of an opinion.
type DocumentRow struct {
	ID          int
	Category    string
	Description string
	Text        string
	Date        *time.Time
	FileImage   []byte
}

// RequestorRow is one requestor of an opinion.
type RequestorRow struct {
	Name        string
	Description string
}

// Source is the relational store holding advisory opinions. Streaming
// methods invoke fn once per row while the cursor is open and stop at the
// first error fn returns.
type Source interface {
	// OpinionNames returns the full opinion number -> name table.
	OpinionNames(ctx context.Context) (map[string]string, error)
	// EachCitationText streams the text of every "Final Opinion" document.
	EachCitationText(ctx context.Context, fn func(no, text string) error) error
	// EachOpinion streams the opinion master table.
	EachOpinion(ctx context.Context, fn func(OpinionRow) error) error
	Documents(ctx context.Context, opinionID int) ([]DocumentRow, error)
	Requestors(ctx context.Context, opinionID int) ([]RequestorRow, error)
	// DocumentIDs returns the ids of every attached document.
	DocumentIDs(ctx context.Context) (map[int]struct{}, error)
}

// Uploader stores an attachment and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, documentID int, body []byte) (string, error)
}
