package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/fec-legal-docs/internal/citation"
)

// pointNamespace scopes deterministic point ids for legal documents.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.fec.gov/legal/"))

// PointID returns the stable point id for a document of the given category
// and natural key. Re-indexing the same key replaces the same point.
func PointID(category, key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(category+"/"+key)).String()
}

// opinionPayload builds the point payload for an opinion. Every list is
// emitted, even when empty, so consumers never see a missing field.
func opinionPayload(ao *AdvisoryOpinion) map[string]any {
	aoCitations := make([]any, len(ao.AOCitations))
	for i, c := range ao.AOCitations {
		aoCitations[i] = map[string]any{"no": c.No, "name": c.Name}
	}
	citedBy := make([]any, len(ao.AOsCitedBy))
	for i, c := range ao.AOsCitedBy {
		citedBy[i] = map[string]any{"no": c.No, "name": c.Name}
	}
	statutes := make([]any, len(ao.StatutoryCitations))
	for i, c := range ao.StatutoryCitations {
		statutes[i] = map[string]any{"text": c.Text, "title": c.Title, "section": c.Section}
	}
	regulations := make([]any, len(ao.RegulatoryCitations))
	for i, c := range ao.RegulatoryCitations {
		regulations[i] = map[string]any{"title": c.Title, "part": c.Part, "section": c.Section}
	}
	documents := make([]any, len(ao.Documents))
	for i, d := range ao.Documents {
		documents[i] = map[string]any{
			"document_id": d.DocumentID,
			"category":    d.Category,
			"description": d.Description,
			"text":        d.Text,
			"date":        formatDate(d.Date),
			"url":         d.URL,
		}
	}

	return map[string]any{
		"type":                 CategoryAdvisoryOpinions,
		"no":                   ao.No,
		"name":                 ao.Name,
		"summary":              ao.Summary,
		"issue_date":           formatDate(ao.IssueDate),
		"is_pending":           ao.IsPending,
		"ao_citations":         aoCitations,
		"aos_cited_by":         citedBy,
		"statutory_citations":  statutes,
		"regulatory_citations": regulations,
		"sort1":                ao.Sort1,
		"sort2":                ao.Sort2,
		"documents":            documents,
		"requestor_names":      stringList(ao.RequestorNames),
		"requestor_types":      stringList(ao.RequestorTypes),
	}
}

// decodeOpinion rebuilds an opinion from a stored payload.
func decodeOpinion(payload map[string]*qdrant.Value) *AdvisoryOpinion {
	ao := &AdvisoryOpinion{
		No:                  payload["no"].GetStringValue(),
		Name:                payload["name"].GetStringValue(),
		Summary:             payload["summary"].GetStringValue(),
		IssueDate:           parseDate(payload["issue_date"]),
		IsPending:           payload["is_pending"].GetBoolValue(),
		Sort1:               int(payload["sort1"].GetIntegerValue()),
		Sort2:               int(payload["sort2"].GetIntegerValue()),
		AOCitations:         []citation.Opinion{},
		AOsCitedBy:          []citation.Opinion{},
		StatutoryCitations:  []citation.Statute{},
		RegulatoryCitations: []citation.Regulation{},
		Documents:           []Document{},
		RequestorNames:      []string{},
		RequestorTypes:      []string{},
	}

	for _, v := range listValues(payload["ao_citations"]) {
		f := v.GetStructValue().GetFields()
		ao.AOCitations = append(ao.AOCitations, citation.Opinion{
			No:   f["no"].GetStringValue(),
			Name: f["name"].GetStringValue(),
		})
	}
	for _, v := range listValues(payload["aos_cited_by"]) {
		f := v.GetStructValue().GetFields()
		ao.AOsCitedBy = append(ao.AOsCitedBy, citation.Opinion{
			No:   f["no"].GetStringValue(),
			Name: f["name"].GetStringValue(),
		})
	}
	for _, v := range listValues(payload["statutory_citations"]) {
		f := v.GetStructValue().GetFields()
		ao.StatutoryCitations = append(ao.StatutoryCitations, citation.Statute{
			Text:    f["text"].GetStringValue(),
			Title:   int(f["title"].GetIntegerValue()),
			Section: int(f["section"].GetIntegerValue()),
		})
	}
	for _, v := range listValues(payload["regulatory_citations"]) {
		f := v.GetStructValue().GetFields()
		ao.RegulatoryCitations = append(ao.RegulatoryCitations, citation.Regulation{
			Title:   int(f["title"].GetIntegerValue()),
			Part:    int(f["part"].GetIntegerValue()),
			Section: int(f["section"].GetIntegerValue()),
		})
	}
	for _, v := range listValues(payload["documents"]) {
		f := v.GetStructValue().GetFields()
		ao.Documents = append(ao.Documents, Document{
			DocumentID:  int(f["document_id"].GetIntegerValue()),
			Category:    f["category"].GetStringValue(),
			Description: f["description"].GetStringValue(),
			Text:        f["text"].GetStringValue(),
			Date:        parseDate(f["date"]),
			URL:         f["url"].GetStringValue(),
		})
	}
	for _, v := range listValues(payload["requestor_names"]) {
		ao.RequestorNames = append(ao.RequestorNames, v.GetStringValue())
	}
	for _, v := range listValues(payload["requestor_types"]) {
		ao.RequestorTypes = append(ao.RequestorTypes, v.GetStringValue())
	}

	return ao
}

func listValues(v *qdrant.Value) []*qdrant.Value {
	return v.GetListValue().GetValues()
}

func stringList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// formatDate returns nil for a missing date so the payload stores null.
func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(v *qdrant.Value) *time.Time {
	s := v.GetStringValue()
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
