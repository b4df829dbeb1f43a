package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/bull/fec-legal-docs/internal/advisory"
)

const (
	opinionNamesQuery = `SELECT ao_no, name FROM aouser.ao`

	citationTextsQuery = `
		SELECT ao.ao_no, d.ocrtext
		FROM aouser.document d
		INNER JOIN aouser.ao ao USING (ao_id)
		WHERE d.category = 'Final Opinion'`

	opinionsQuery = `
		SELECT ao_id, ao_no, name, summary, issue_date
		FROM aouser.ao
		ORDER BY ao_id`

	documentsQuery = `
		SELECT document_id, ocrtext, fileimage, description, category, document_date
		FROM aouser.document
		WHERE ao_id = $1
		ORDER BY document_id`

	requestorsQuery = `
		SELECT e.name, et.description
		FROM aouser.players p
		INNER JOIN aouser.entity e USING (entity_id)
		INNER JOIN aouser.entity_type et ON et.entity_type_id = e.type
		WHERE p.ao_id = $1 AND p.role_id IN (0, 1)`

	documentIDsQuery = `SELECT document_id FROM aouser.document`
)

var _ advisory.Source = (*Postgres)(nil)

// OpinionNames returns the number -> name table of every opinion.
func (db *Postgres) OpinionNames(ctx context.Context) (map[string]string, error) {
	rows, err := db.pool.Query(ctx, opinionNamesQuery)
	if err != nil {
		return nil, fmt.Errorf("query opinion names: %w", err)
	}

	names := make(map[string]string)
	var no string
	var name pgtype.Text
	_, err = pgx.ForEachRow(rows, []any{&no, &name}, func() error {
		names[no] = textValue(name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan opinion names: %w", err)
	}
	return names, nil
}

// EachCitationText streams the OCR text of every final opinion document.
func (db *Postgres) EachCitationText(ctx context.Context, fn func(no, text string) error) error {
	rows, err := db.pool.Query(ctx, citationTextsQuery)
	if err != nil {
		return fmt.Errorf("query citation texts: %w", err)
	}

	var no string
	var text pgtype.Text
	_, err = pgx.ForEachRow(rows, []any{&no, &text}, func() error {
		return fn(no, textValue(text))
	})
	return err
}

// EachOpinion streams the opinion master table. The cursor stays open while
// fn runs, so fn must use other pooled connections for nested queries.
func (db *Postgres) EachOpinion(ctx context.Context, fn func(advisory.OpinionRow) error) error {
	rows, err := db.pool.Query(ctx, opinionsQuery)
	if err != nil {
		return fmt.Errorf("query opinions: %w", err)
	}

	var (
		id      int
		no      string
		name    pgtype.Text
		summary pgtype.Text
		issued  pgtype.Date
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &no, &name, &summary, &issued}, func() error {
		return fn(advisory.OpinionRow{
			ID:        id,
			No:        no,
			Name:      textValue(name),
			Summary:   textValue(summary),
			IssueDate: dateValue(issued),
		})
	})
	return err
}

// Documents returns every document attached to an opinion.
func (db *Postgres) Documents(ctx context.Context, opinionID int) ([]advisory.DocumentRow, error) {
	rows, err := db.pool.Query(ctx, documentsQuery, opinionID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	docs := []advisory.DocumentRow{}
	var (
		id          int
		text        pgtype.Text
		image       []byte
		description pgtype.Text
		category    pgtype.Text
		date        pgtype.Date
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &text, &image, &description, &category, &date}, func() error {
		docs = append(docs, advisory.DocumentRow{
			ID:          id,
			Category:    textValue(category),
			Description: textValue(description),
			Text:        textValue(text),
			Date:        dateValue(date),
			FileImage:   image,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

// Requestors returns the requestors and representatives of an opinion.
func (db *Postgres) Requestors(ctx context.Context, opinionID int) ([]advisory.RequestorRow, error) {
	rows, err := db.pool.Query(ctx, requestorsQuery, opinionID)
	if err != nil {
		return nil, fmt.Errorf("query requestors: %w", err)
	}

	requestors := []advisory.RequestorRow{}
	var name, description pgtype.Text
	_, err = pgx.ForEachRow(rows, []any{&name, &description}, func() error {
		requestors = append(requestors, advisory.RequestorRow{
			Name:        textValue(name),
			Description: textValue(description),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan requestors: %w", err)
	}
	return requestors, nil
}

// DocumentIDs returns the ids of every attached document.
func (db *Postgres) DocumentIDs(ctx context.Context) (map[int]struct{}, error) {
	rows, err := db.pool.Query(ctx, documentIDsQuery)
	if err != nil {
		return nil, fmt.Errorf("query document ids: %w", err)
	}

	ids := make(map[int]struct{})
	var id int
	_, err = pgx.ForEachRow(rows, []any{&id}, func() error {
		ids[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan document ids: %w", err)
	}
	return ids, nil
}
