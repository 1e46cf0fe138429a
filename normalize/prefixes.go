package normalize

import (
	"text2phenotype.com/bioner/annotation"
	"strings"
)

const (
	// taxonMarker appears inside raw taxonomy identifiers ("NCBI:txid10095");
	// the text after it is the bare taxon id.
	taxonMarker = "NCBI:txid"
	taxonPrefix = "ncbitaxon"

	// Cell line identifiers lose their "CVCL_" tag when the underscore rule
	// splits them; the tag is restored after prefix resolution.
	cellLinePrefix   = "cellosaurus"
	cellLineLocalTag = "CVCL_"
)

// Registry resolves ontology prefixes. Both lookups are pure and may miss;
// a miss keeps whatever prefix the caller already has.
type Registry interface {
	NormalizePrefix(prefix string) (string, bool)
	PreferredPrefix(prefix string) (string, bool)
}

// PrefixNormalizer rewrites identifier prefixes to their canonical registry
// form, e.g. "EntrezGene:10533" to "NCBIGene:10533".
type PrefixNormalizer struct {
	Registry Registry
}

// Apply rewrites every identifier of every mention whose entity group is
// normalizable. Identifiers of other groups (mutation) pass untouched.
func (normalizer PrefixNormalizer) Apply(doc *annotation.TaggedDocument) {
	for entityType, mentions := range doc.Entities {
		if !entityType.Normalizable() {
			continue
		}
		for _, mention := range mentions {
			normalized := make(annotation.IDList, 0, len(mention.ID))
			for _, id := range mention.ID {
				normalized = append(normalized, normalizer.normalizeID(id))
			}
			mention.ID = normalized
		}
	}
}

// normalizeID splits one identifier into prefix and local id, first rule
// wins: the taxonomy marker, then the first "_", then the first ":". An
// identifier with no recognizable shape comes back unchanged.
func (normalizer PrefixNormalizer) normalizeID(id string) string {
	var prefix, local string
	switch {
	case strings.Contains(id, taxonMarker):
		prefix = taxonPrefix
		local = strings.SplitN(id, taxonMarker, 2)[1]
	case strings.Contains(id, "_"):
		parts := strings.SplitN(id, "_", 2)
		prefix, local = parts[0], parts[1]
	case strings.Contains(id, ":"):
		parts := strings.SplitN(id, ":", 2)
		prefix, local = parts[0], parts[1]
	default:
		return id
	}

	if canonical, ok := normalizer.Registry.NormalizePrefix(prefix); ok && canonical != "" {
		prefix = canonical
	}
	if preferred, ok := normalizer.Registry.PreferredPrefix(prefix); ok && preferred != "" {
		prefix = preferred
	}
	if prefix == cellLinePrefix {
		local = cellLineLocalTag + local
	}
	return prefix + ":" + local
}
