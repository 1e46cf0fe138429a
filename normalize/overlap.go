package normalize

import (
	"text2phenotype.com/bioner/annotation"
	"fmt"
	"sort"
)

// spanCandidate is one competing entity assignment for a text span.
type spanCandidate struct {
	entityType annotation.EntityType
	id         annotation.IDList
	hasCUI     bool
	prob       float64
}

// rankedBefore orders candidates competing for one span: a linked concept
// always beats a CUI-less one, ties go to the higher positive probability.
func rankedBefore(a, b spanCandidate) bool {
	if a.hasCUI != b.hasCUI {
		return a.hasCUI
	}
	return a.prob > b.prob
}

// ResolveOverlap reconciles spans tagged by more than one entity group: per
// span, only the mentions matching the best ranked candidate survive, every
// other assignment is dropped. The separately tagged mutation layer then
// replaces the document's mutation group wholesale. The Prob table is left
// exactly as the tagger produced it, so its rows no longer align with the
// filtered mention lists.
//
// A mention whose index has no Prob row is a tagger contract violation and
// panics; the worker's panic barrier turns that into a failed task.
func ResolveOverlap(doc *annotation.TaggedDocument, mutationDoc *annotation.TaggedDocument) {
	entityTypes := make([]string, 0, len(doc.Entities))
	for entityType := range doc.Entities {
		entityTypes = append(entityTypes, string(entityType))
	}
	sort.Strings(entityTypes)

	spans := make(map[uint64][]spanCandidate)
	for _, name := range entityTypes {
		entityType := annotation.EntityType(name)
		probs := doc.Prob[entityType]
		for idx, mention := range doc.Entities[entityType] {
			if idx >= len(probs) {
				panic(fmt.Sprintf("no probability for %s mention #%d at %d-%d",
					entityType, idx, mention.Start, mention.End))
			}
			key := mention.SpanKey()
			spans[key] = append(spans[key], spanCandidate{
				entityType: entityType,
				id:         mention.ID,
				hasCUI:     mention.ID.HasCUI(),
				prob:       probs[idx].Positive(),
			})
		}
	}

	for _, candidates := range spans {
		sort.SliceStable(candidates, func(i, j int) bool {
			return rankedBefore(candidates[i], candidates[j])
		})
	}

	for entityType, mentions := range doc.Entities {
		survivors := make([]*annotation.Mention, 0, len(mentions))
		for _, mention := range mentions {
			candidates := spans[mention.SpanKey()]
			if len(candidates) == 0 {
				panic(fmt.Sprintf("no candidates recorded for span %d-%d", mention.Start, mention.End))
			}
			best := candidates[0]
			if best.entityType == entityType && best.id.Equal(mention.ID) {
				survivors = append(survivors, mention)
			}
		}
		doc.Entities[entityType] = survivors
	}

	doc.Entities[annotation.Mutation] = mutationDoc.Entities[annotation.Mutation]
}
