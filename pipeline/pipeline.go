package pipeline

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/logger"
	"text2phenotype.com/bioner/normalize"
	"text2phenotype.com/bioner/preprocess"
	"text2phenotype.com/bioner/pubannotation"
	"text2phenotype.com/bioner/pubtator"
	"text2phenotype.com/bioner/tagger"
	"text2phenotype.com/bioner/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"strings"
	"time"
)

// Pipeline annotates the text of a single request and delivers the
// serialized response on the returned channel. A pipeline that fails
// closes the channel without sending anything.
type Pipeline func(request Request) <-chan string

type Params struct {
	Configurations []annotation.Configuration `json:"configurations"`
	MaxWordLen     int                        `json:"max_word_len"`
}

func GetParams(cfgs []annotation.Configuration, maxWordLen int) Params {
	if maxWordLen <= 0 {
		maxWordLen = preprocess.DefaultMaxWordLen
	}
	return Params{
		Configurations: cfgs,
		MaxWordLen:     maxWordLen,
	}
}

// Annotator drives the multi-task NER flow: preprocess the text, tag it,
// resolve overlapping spans against the mutation tagger, split compound
// identifiers, normalize their prefixes and convert the result to the
// PubAnnotation response shape.
type Annotator struct {
	params            Params
	ner               tagger.Tagger
	mutation          tagger.Tagger
	normalizer        normalize.PrefixNormalizer
	normalizePrefixes bool
	resolveOverlap    bool
	pplnLogger        zerolog.Logger
}

func NewAnnotator(params Params, ner tagger.Tagger, mutation tagger.Tagger, reg normalize.Registry) (*Annotator, error) {
	pplnLogger := logger.NewLogger("Multi-task NER pipeline")
	errLogger := pplnLogger.With().Caller().Logger()
	pplnLogger.Info().
		Interface("params", params).
		Msg("Starting multi-task NER pipeline (see parameters in 'params' field)")

	if ner == nil {
		err := errors.New("multi-task tagger is required")
		errLogger.Err(err).Msg("Failed to create annotator")
		return nil, err
	}
	if reg == nil {
		err := errors.New("prefix registry is required")
		errLogger.Err(err).Msg("Failed to create annotator")
		return nil, err
	}

	var multiTask *annotation.Configuration
	for i, cfg := range params.Configurations {
		if cfg.Pipeline != annotation.MultiTaskPipeline {
			continue
		}
		if multiTask != nil {
			err := fmt.Errorf("more than one %s configuration", annotation.MultiTaskPipeline)
			errLogger.Err(err).Msg("Failed to create annotator")
			return nil, err
		}
		multiTask = &params.Configurations[i]
	}
	if multiTask == nil {
		err := fmt.Errorf("no %s configuration", annotation.MultiTaskPipeline)
		errLogger.Err(err).Interface("configurations", params.Configurations).Msg("Failed to create annotator")
		return nil, err
	}

	resolveOverlap := multiTask.CheckFeature(annotation.OverlapResolution)
	if resolveOverlap && mutation == nil {
		err := fmt.Errorf("%s feature requires a mutation tagger", annotation.OverlapResolution)
		errLogger.Err(err).Str("config_name", multiTask.Name).Msg("Failed to create annotator")
		return nil, err
	}

	return &Annotator{
		params:            params,
		ner:               ner,
		mutation:          mutation,
		normalizer:        normalize.PrefixNormalizer{Registry: reg},
		normalizePrefixes: multiTask.CheckFeature(annotation.PrefixNormalization),
		resolveOverlap:    resolveOverlap,
		pplnLogger:        pplnLogger,
	}, nil
}

func (annotator *Annotator) Pipeline() Pipeline {
	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := annotator.pplnLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started multi-task NER pipeline")
		errLogger := pplnLog.With().Caller().Logger()

		go func() {
			defer close(responseChan)

			annotated, err := annotator.AnnotateBatch(context.Background(), []pubtator.Document{{Text: request.Text}})
			if err != nil {
				errLogger.Err(err).Msg("Failed to annotate request text")
				return
			}

			buf, err := json.Marshal(annotated[0])
			if err != nil {
				errLogger.Err(err).Msg("Failed to marshall response")
				return
			}
			pplnLog.Info().
				Int("num_entities", annotated[0].NumEntities).
				Msg("Finished multi-task NER pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}
}

// AnnotateBatch tags every document and post-processes the annotations.
// The returned documents keep the input order.
func (annotator *Annotator) AnnotateBatch(ctx context.Context, docs []pubtator.Document) (converted []pubannotation.Document, err error) {
	defer utils.RecoverWithError(&err)

	if len(docs) == 0 {
		return []pubannotation.Document{}, nil
	}
	started := time.Now()

	prepared := make([]pubtator.Document, len(docs))
	for i, doc := range docs {
		prepared[i] = annotator.prepare(doc)
	}

	tagged, err := annotator.ner.Tag(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("multi-task tagging failed: %w", err)
	}
	if len(tagged) != len(prepared) {
		return nil, fmt.Errorf("multi-task tagger returned %d documents for %d inputs", len(tagged), len(prepared))
	}

	if annotator.resolveOverlap {
		mutationDocs, err := annotator.mutation.Tag(ctx, prepared)
		if err != nil {
			return nil, fmt.Errorf("mutation tagging failed: %w", err)
		}
		if len(mutationDocs) != len(prepared) {
			return nil, fmt.Errorf("mutation tagger returned %d documents for %d inputs", len(mutationDocs), len(prepared))
		}
		for i, doc := range tagged {
			normalize.ResolveOverlap(doc, mutationDocs[i])
		}
	}
	taggingElapse := time.Since(started).Seconds()

	converted = make([]pubannotation.Document, len(tagged))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, doc := range tagged {
		i, doc := i, doc
		group.Go(func() (err error) {
			defer utils.RecoverWithError(&err)
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			normalize.SplitIdentifiers(doc)
			if annotator.normalizePrefixes {
				annotator.normalizer.Apply(doc)
			}
			doc.ElapseTime = &annotation.ElapseTime{
				Tagging: taggingElapse,
				Total:   time.Since(started).Seconds(),
			}
			converted[i] = pubannotation.Convert(doc)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("post-processing failed: %w", err)
	}
	return converted, nil
}

// prepare sanitizes the document text and derives a document id when the
// input does not carry one.
func (annotator *Annotator) prepare(doc pubtator.Document) pubtator.Document {
	prepLog := annotator.pplnLogger.With().Str("pmid", doc.PMID).Logger()

	text := strings.TrimSpace(doc.Text)
	text, applied := preprocess.Sanitize(text)
	if len(applied) > 0 {
		prepLog.Debug().Strs("replacements", applied).Msg("Sanitized control characters")
	}
	text, truncated := preprocess.TruncateLongWords(text, annotator.params.MaxWordLen)
	if truncated > 0 {
		prepLog.Debug().Int("truncated_words", truncated).Msg("Truncated overlong words")
	}
	if placeholder := preprocess.OrPlaceholder(text); placeholder != text {
		prepLog.Debug().Msg("Replaced empty text with placeholder")
		text = placeholder
	}

	doc.Text = text
	if doc.PMID == "" {
		doc.PMID = pubtator.BaseName(text)
	}
	return doc
}
