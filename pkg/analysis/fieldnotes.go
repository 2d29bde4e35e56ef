package analysis

import (
	"strings"
)

// Field note search returns at most this many notes.
const maxFieldNotes = 25

// FieldNoteMatch is one matching note with the keywords that hit.
type FieldNoteMatch struct {
	NoteID          string   `json:"note_id"`
	Date            string   `json:"date"`
	Author          string   `json:"author"`
	NoteType        string   `json:"note_type"`
	Content         string   `json:"content"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// FieldNoteSearch is the searchFieldNotes result.
type FieldNoteSearch struct {
	ProjectID  string           `json:"project_id"`
	Keywords   []string         `json:"keywords"`
	TotalNotes int              `json:"total_notes"`
	MatchCount int              `json:"match_count"`
	Matches    []FieldNoteMatch `json:"matches"`
}

// SearchFieldNotes finds notes whose content contains any of the keywords,
// case-insensitively. Empty keywords returns every note. Results come back
// newest first, capped.
func (a *Analyzer) SearchFieldNotes(projectID string, keywords []string) *FieldNoteSearch {
	notes := a.store.FieldNotesFor(projectID)
	res := &FieldNoteSearch{
		ProjectID:  projectID,
		Keywords:   keywords,
		TotalNotes: len(notes),
		Matches:    []FieldNoteMatch{},
	}

	type term struct{ original, lowered string }
	terms := make([]term, 0, len(keywords))
	for _, k := range keywords {
		if t := strings.TrimSpace(k); t != "" {
			terms = append(terms, term{original: k, lowered: strings.ToLower(t)})
		}
	}

	for _, n := range notes {
		content := strings.ToLower(n.Content)
		matched := []string{}
		for _, t := range terms {
			if strings.Contains(content, t.lowered) {
				matched = append(matched, t.original)
			}
		}
		if len(terms) > 0 && len(matched) == 0 {
			continue
		}
		res.Matches = append(res.Matches, FieldNoteMatch{
			NoteID:          n.NoteID,
			Date:            n.Date,
			Author:          n.Author,
			NoteType:        n.NoteType,
			Content:         n.Content,
			MatchedKeywords: matched,
		})
		if len(res.Matches) == maxFieldNotes {
			break
		}
	}
	res.MatchCount = len(res.Matches)
	return res
}
