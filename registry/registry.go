package registry

import (
	"text2phenotype.com/bioner/utils"
	"strings"
)

// Table maps ontology prefix synonyms to their canonical registry form and
// canonical prefixes to their preferred display casing. Lookups are case
// insensitive and never fail; a miss just reports false.
type Table struct {
	canonical map[string]string
	preferred map[string]string
}

// NewTable builds a table covering the vocabularies the taggers emit for the
// six normalized entity groups. Built-in rows can be extended or overridden
// with LoadSynonyms.
func NewTable() *Table {
	return &Table{
		canonical: map[string]string{
			"mesh":        "mesh",
			"msh":         "mesh",
			"omim":        "omim",
			"mim":         "omim",
			"entrez":      "ncbigene",
			"entrezgene":  "ncbigene",
			"ncbigene":    "ncbigene",
			"ncbitaxon":   "ncbitaxon",
			"taxonomy":    "ncbitaxon",
			"taxon":       "ncbitaxon",
			"cvcl":        "cellosaurus",
			"cellosaurus": "cellosaurus",
			"chebi":       "chebi",
			"drugbank":    "drugbank",
			"doid":        "doid",
			"mondo":       "mondo",
			"cl":          "cl",
			"hgnc":        "hgnc",
		},
		preferred: map[string]string{
			"ncbigene":  "NCBIGene",
			"ncbitaxon": "NCBITaxon",
			"chebi":     "CHEBI",
			"doid":      "DOID",
			"mondo":     "MONDO",
			"cl":        "CL",
			"hgnc":      "HGNC",
		},
	}
}

// LoadSynonyms merges rows of a pipe-delimited synonym|canonical file into
// the table.
func (table *Table) LoadSynonyms(filePath string) error {
	rows, err := utils.ReadMap(filePath)
	if err != nil {
		return err
	}
	for synonym, canonical := range rows {
		table.canonical[strings.ToLower(synonym)] = strings.ToLower(canonical)
	}
	return nil
}

func (table *Table) NormalizePrefix(prefix string) (string, bool) {
	canonical, ok := table.canonical[strings.ToLower(prefix)]
	return canonical, ok
}

func (table *Table) PreferredPrefix(prefix string) (string, bool) {
	preferred, ok := table.preferred[strings.ToLower(prefix)]
	return preferred, ok
}
