package pubannotation

import (
	"text2phenotype.com/bioner/annotation"
	"sort"
)

type Span struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Annotation is one entity mention in the public output shape.
type Annotation struct {
	ID                 annotation.IDList     `json:"id"`
	Span               Span                  `json:"span"`
	Obj                annotation.EntityType `json:"obj"`
	Mention            string                `json:"mention,omitempty"`
	IsNeuralNormalized bool                  `json:"is_neural_normalized"`
}

type Document struct {
	PMID        string                 `json:"pmid"`
	Text        string                 `json:"text"`
	Annotations []Annotation           `json:"annotations"`
	NumEntities int                    `json:"num_entities"`
	ElapseTime  *annotation.ElapseTime `json:"elapse_time,omitempty"`
}

// Convert flattens a tagged document's entity map into the public annotation
// list, ordered by span and then entity group. Mentions are read, never
// mutated; identifier cleanup is over by the time a document gets here.
func Convert(doc *annotation.TaggedDocument) Document {
	annotations := make([]Annotation, 0, doc.CountEntities())
	for entityType, mentions := range doc.Entities {
		for _, mention := range mentions {
			annotations = append(annotations, Annotation{
				ID:                 mention.ID,
				Span:               Span{Begin: mention.Start, End: mention.End},
				Obj:                entityType,
				Mention:            mention.Mention,
				IsNeuralNormalized: mention.IsNeuralNormalized,
			})
		}
	}
	sort.SliceStable(annotations, func(i, j int) bool {
		a, b := annotations[i], annotations[j]
		if a.Span.Begin != b.Span.Begin {
			return a.Span.Begin < b.Span.Begin
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		return a.Obj < b.Obj
	})

	return Document{
		PMID:        doc.PMID,
		Text:        doc.Text,
		Annotations: annotations,
		NumEntities: len(annotations),
		ElapseTime:  doc.ElapseTime,
	}
}
