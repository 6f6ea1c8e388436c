// Package score computes the transparency score of a project from the set of
// critical documents it has published. The engine is a pure function over the
// document-presence set and the static catalog.
package score

import (
	"encoding/json"
	"strings"
)

const (
	ColorRed    = "RED"
	ColorYellow = "YELLOW"
	ColorGreen  = "GREEN"
)

// Result is the outcome of scoring one project.
type Result struct {
	Score   int
	Color   string
	Message string
	Missing []string
}

// lifecycle phases whose sub-objects may carry their own document lists.
var phases = []string{"identification", "preparation", "procurement", "implementation", "completion"}

// ProjectDocument is a document reference as it appears in the registry
// payload. A non-empty URL means the document is actually published.
type ProjectDocument struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ExtractDocuments collects every document reference from a raw project
// payload: the top-level documents list plus each lifecycle phase's list.
// Malformed sections are skipped rather than failing the whole project.
func ExtractDocuments(payload json.RawMessage) []ProjectDocument {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil
	}

	var docs []ProjectDocument
	appendDocs := func(raw json.RawMessage) {
		var list []ProjectDocument
		if err := json.Unmarshal(raw, &list); err != nil {
			return
		}
		docs = append(docs, list...)
	}

	if raw, ok := root["documents"]; ok {
		appendDocs(raw)
	}

	for _, phase := range phases {
		raw, ok := root[phase]
		if !ok {
			continue
		}
		var sub map[string]json.RawMessage
		if err := json.Unmarshal(raw, &sub); err != nil {
			continue
		}
		if list, ok := sub["documents"]; ok {
			appendDocs(list)
		}
	}

	return docs
}

// Evaluate scores a document-presence set against the catalog. A catalog
// entry counts as published when its type appears anywhere in the set.
func Evaluate(presence []string) Result {
	present := make(map[string]bool, len(presence))
	for _, t := range presence {
		present[t] = true
	}

	publishedCenti := 0
	var missing []string
	for _, doc := range Catalog {
		if present[doc.Type] {
			publishedCenti += doc.WeightCenti
		} else {
			missing = append(missing, doc.Name)
		}
	}

	s := roundHalfEvenTenth(publishedCenti)

	return Result{
		Score:   s,
		Color:   colorFor(s),
		Message: alertMessage(s, missing),
		Missing: missing,
	}
}

// EvaluatePayload is Evaluate over the document types found in a raw payload.
func EvaluatePayload(payload json.RawMessage) Result {
	docs := ExtractDocuments(payload)
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.Type)
	}
	return Evaluate(types)
}

// roundHalfEvenTenth maps a published weight in hundredths (0..100) to the
// 0..10 score using banker's rounding: 65 -> 6, 35 -> 4, 25 -> 2.
func roundHalfEvenTenth(centi int) int {
	q, r := centi/10, centi%10
	if r > 5 || (r == 5 && q%2 == 1) {
		q++
	}
	return q
}

func colorFor(s int) string {
	switch {
	case s < 4:
		return ColorRed
	case s < 7:
		return ColorYellow
	default:
		return ColorGreen
	}
}

func alertMessage(s int, missing []string) string {
	switch {
	case s < 4:
		msg := "ALERTA CRÍTICO: Risco de opacidade severa. "
		if len(missing) > 0 {
			first := missing
			if len(first) > 2 {
				first = first[:2]
			}
			msg += "Faltam: " + strings.Join(first, ", ") + ". "
		}
		return msg + "Ação: Exija estes documentos."
	case s < 7:
		msg := "ALERTA: Transparência parcial. "
		if len(missing) > 0 {
			msg += "Falta: " + missing[0] + ". "
		}
		return msg + "Fiscalize o cumprimento."
	default:
		return "Transparência adequada. Documentos principais publicados."
	}
}
