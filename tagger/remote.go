package tagger

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/logger"
	"text2phenotype.com/bioner/pubtator"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBatchSize = 4

	defaultMaxRetries     = 3
	defaultRequestTimeout = 90 * time.Second
	retryDelay            = 2 * time.Second
)

type RemoteParams struct {
	Endpoint          string
	BatchSize         int
	RequestsPerSecond float64
	MaxRetries        int
	EntityTypes       []annotation.EntityType
}

// Remote tags documents through an HTTP inference endpoint. Requests carry a
// PubTator stream and come back as a JSON array of tagged documents, one per
// input document. Documents are sent in fixed size batches and the batch
// outputs are concatenated in input order.
type Remote struct {
	endpoint     string
	batchSize    int
	maxRetries   int
	limiter      *rate.Limiter
	client       *http.Client
	taggerLogger zerolog.Logger
}

func NewRemote(params RemoteParams) (*Remote, error) {
	if params.Endpoint == "" {
		return nil, errors.New("tagger endpoint is not set")
	}
	endpoint, err := endpointWithTypes(params.Endpoint, params.EntityTypes)
	if err != nil {
		return nil, err
	}

	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	limit := rate.Inf
	if params.RequestsPerSecond > 0 {
		limit = rate.Limit(params.RequestsPerSecond)
	}

	return &Remote{
		endpoint:     endpoint,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		limiter:      rate.NewLimiter(limit, 1),
		client:       &http.Client{Timeout: defaultRequestTimeout},
		taggerLogger: logger.NewLogger("Remote tagger"),
	}, nil
}

// endpointWithTypes pins the entity groups the endpoint should emit as a
// query parameter, once, at construction time.
func endpointWithTypes(endpoint string, entityTypes []annotation.EntityType) (string, error) {
	if len(entityTypes) == 0 {
		return endpoint, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("bad tagger endpoint %q: %w", endpoint, err)
	}
	names := make([]string, len(entityTypes))
	for i, entityType := range entityTypes {
		names[i] = string(entityType)
	}
	query := parsed.Query()
	query.Set("entity_types", strings.Join(names, ","))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (remote *Remote) Tag(ctx context.Context, docs []pubtator.Document) ([]*annotation.TaggedDocument, error) {
	tagged := make([]*annotation.TaggedDocument, 0, len(docs))
	for start := 0; start < len(docs); start += remote.batchSize {
		end := start + remote.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch, err := remote.tagBatch(ctx, docs[start:end])
		if err != nil {
			return nil, err
		}
		tagged = append(tagged, batch...)
	}
	return tagged, nil
}

func (remote *Remote) tagBatch(ctx context.Context, batch []pubtator.Document) ([]*annotation.TaggedDocument, error) {
	var lastErr error
	for attempt := 0; attempt <= remote.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}
		if err := remote.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		tagged, err := remote.post(ctx, batch)
		if err == nil {
			return tagged, nil
		}
		lastErr = err
		remote.taggerLogger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("batch_size", len(batch)).
			Msg("Tagger request failed")
	}
	return nil, fmt.Errorf("tagger endpoint failed after %d attempts: %w", remote.maxRetries+1, lastErr)
}

func (remote *Remote) post(ctx context.Context, batch []pubtator.Document) ([]*annotation.TaggedDocument, error) {
	var body bytes.Buffer
	if err := pubtator.Write(&body, batch); err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, remote.endpoint, &body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "text/plain; charset=utf-8")

	response, err := remote.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		buf, _ := ioutil.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("tagger endpoint returned %s: %s", response.Status, strings.TrimSpace(string(buf)))
	}

	var tagged []*annotation.TaggedDocument
	if err := json.NewDecoder(response.Body).Decode(&tagged); err != nil {
		return nil, fmt.Errorf("failed to decode tagger response: %w", err)
	}
	if len(tagged) != len(batch) {
		return nil, fmt.Errorf("tagger returned %d documents for a %d document batch", len(tagged), len(batch))
	}
	return tagged, nil
}
