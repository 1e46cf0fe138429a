package annotation

import (
	"text2phenotype.com/bioner/utils"
	"fmt"
)

// EntityType names one entity group produced by the taggers.
type EntityType string

const (
	Disease  EntityType = "disease"
	Gene     EntityType = "gene"
	Drug     EntityType = "drug"
	Species  EntityType = "species"
	CellLine EntityType = "cell_line"
	CellType EntityType = "cell_type"
	Mutation EntityType = "mutation"
)

// NormalizableTypes are the entity groups whose identifiers carry vocabulary
// prefixes. Mutation identifiers keep their native form.
var NormalizableTypes = []EntityType{Disease, Gene, Drug, Species, CellLine, CellType}

func (entityType EntityType) Normalizable() bool {
	for _, normalizable := range NormalizableTypes {
		if entityType == normalizable {
			return true
		}
	}
	return false
}

// Mention is a single tagged span. Start is an inclusive character offset
// into the document text, End an exclusive one.
type Mention struct {
	Start              int    `json:"start"`
	End                int    `json:"end"`
	ID                 IDList `json:"id"`
	Mention            string `json:"mention,omitempty"`
	IsNeuralNormalized bool   `json:"is_neural_normalized"`
}

func (mention *Mention) SpanKey() uint64 {
	key := fmt.Sprintf("%d-%d", mention.Start, mention.End)
	return utils.HashString(key)
}

// ProbPair is the tagger's class distribution for one mention,
// [negative, positive].
type ProbPair [2]float64

func (pair ProbPair) Negative() float64 {
	return pair[0]
}

func (pair ProbPair) Positive() float64 {
	return pair[1]
}

type ElapseTime struct {
	Tagging float64 `json:"tagger_elapse_time"`
	Total   float64 `json:"total_elapse_time"`
}

// TaggedDocument is one document of a tagger batch. A Prob row is parallel
// to the Entities row of the same entity type: Prob[t][i] ranks Entities[t][i].
type TaggedDocument struct {
	PMID        string                    `json:"pmid"`
	Text        string                    `json:"text"`
	Entities    map[EntityType][]*Mention `json:"entities"`
	Prob        map[EntityType][]ProbPair `json:"prob,omitempty"`
	NumEntities int                       `json:"num_entities"`
	ElapseTime  *ElapseTime               `json:"elapse_time,omitempty"`
}

// CountEntities recounts the mentions across all entity groups. Call after
// any stage that drops or injects mentions to keep NumEntities honest.
func (doc *TaggedDocument) CountEntities() int {
	total := 0
	for _, mentions := range doc.Entities {
		total += len(mentions)
	}
	return total
}
