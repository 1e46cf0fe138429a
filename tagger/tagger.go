package tagger

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/pubtator"
	"context"
)

// Tagger is an opaque handle to a neural tagging backend. The orchestrator
// constructs one per configured model and owns its lifecycle; nothing in the
// pipeline caches model state.
type Tagger interface {
	Tag(ctx context.Context, docs []pubtator.Document) ([]*annotation.TaggedDocument, error)
}
