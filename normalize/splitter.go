package normalize

import (
	"text2phenotype.com/bioner/annotation"
	"strings"
)

// SplitIdentifiers expands compound identifier strings into atomic ones for
// every mention of every entity group. Taggers join multiple hits for one
// span into a single string ("OMIM:608627,MESH:C563895", sometimes with "|"
// as the separator); downstream stages expect one identifier per element.
// Splitting is purely syntactic: order is preserved, empty tokens survive,
// nothing is validated or deduplicated.
func SplitIdentifiers(doc *annotation.TaggedDocument) {
	for _, mentions := range doc.Entities {
		for _, mention := range mentions {
			split := make(annotation.IDList, 0, len(mention.ID))
			for _, id := range mention.ID {
				split = append(split, strings.Split(strings.ReplaceAll(id, "|", ","), ",")...)
			}
			mention.ID = split
		}
	}
}
