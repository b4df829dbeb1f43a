package storage

import (
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/fec-legal-docs/internal/citation"
)

func TestPointID_Deterministic(t *testing.T) {
	a := PointID(CategoryAdvisoryOpinions, "2008-12")
	b := PointID(CategoryAdvisoryOpinions, "2008-12")
	c := PointID(CategoryAdvisoryOpinions, "2008-13")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, PointID("murs", "2008-12"))
}

func TestOpinionPayload_FieldNames(t *testing.T) {
	payload := opinionPayload(&AdvisoryOpinion{No: "2008-12"})

	for _, field := range []string{
		"no", "name", "summary", "issue_date", "is_pending",
		"ao_citations", "aos_cited_by", "statutory_citations", "regulatory_citations",
		"sort1", "sort2", "documents", "requestor_names", "requestor_types",
	} {
		assert.Contains(t, payload, field)
	}
	assert.Equal(t, CategoryAdvisoryOpinions, payload["type"])
	assert.Nil(t, payload["issue_date"])
	assert.Equal(t, []any{}, payload["documents"])
}

func TestOpinionPayload_Decode(t *testing.T) {
	issued := time.Date(2008, 7, 1, 0, 0, 0, 0, time.UTC)
	ao := &AdvisoryOpinion{
		No:                  "2008-12",
		Name:                "Alpha PAC",
		Summary:             "Use of campaign funds.",
		IssueDate:           &issued,
		IsPending:           false,
		AOCitations:         []citation.Opinion{{No: "2007-01", Name: "Beta"}},
		AOsCitedBy:          []citation.Opinion{{No: "2010-03", Name: "Gamma"}},
		StatutoryCitations:  []citation.Statute{{Text: "52 U.S.C. 30101", Title: 52, Section: 30101}},
		RegulatoryCitations: []citation.Regulation{{Title: 11, Part: 104, Section: 1}},
		Sort1:               -2008,
		Sort2:               -12,
		Documents: []Document{{
			DocumentID: 1,
			Category:   "Final Opinion",
			Text:       "text",
			URL:        "https://bucket.s3.amazonaws.com/legal/aos/1.pdf",
		}},
		RequestorNames: []string{"Jane Doe"},
		RequestorTypes: []string{"Individual"},
	}

	decoded := decodeOpinion(qdrant.NewValueMap(opinionPayload(ao)))

	require.NotNil(t, decoded.IssueDate)
	assert.True(t, issued.Equal(*decoded.IssueDate))
	decoded.IssueDate = ao.IssueDate
	assert.Equal(t, ao, decoded)
}
