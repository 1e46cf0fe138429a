package tagger

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/pubtator"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type requestLog struct {
	sync.Mutex
	failFirst bool
	batches   [][]pubtator.Document
}

func taggerStub(t *testing.T, log *requestLog) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Lock()
		defer log.Unlock()
		if log.failFirst {
			log.failFirst = false
			http.Error(w, "model warming up", http.StatusInternalServerError)
			return
		}
		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			t.Error("Failed to read request body", err)
		}
		docs, err := pubtator.Read(strings.NewReader(string(body)))
		if err != nil {
			t.Error("Tagger received a malformed pubtator stream", err)
		}
		log.batches = append(log.batches, docs)

		tagged := make([]*annotation.TaggedDocument, len(docs))
		for i, doc := range docs {
			tagged[i] = &annotation.TaggedDocument{
				PMID: doc.PMID,
				Text: doc.Text,
				Entities: map[annotation.EntityType][]*annotation.Mention{
					annotation.Disease: {{Start: 0, End: 4, ID: annotation.IDList{"MESH:D003924"}}},
				},
				NumEntities: 1,
			}
		}
		if err := json.NewEncoder(w).Encode(tagged); err != nil {
			t.Error("Failed to encode response", err)
		}
	}))
}

func TestRemoteBatchesAndConcatenates(t *testing.T) {
	log := &requestLog{}
	server := taggerStub(t, log)
	defer server.Close()

	remote, err := NewRemote(RemoteParams{Endpoint: server.URL, BatchSize: 2})
	if err != nil {
		t.Fatal("Failed to build remote tagger", err)
	}

	docs := []pubtator.Document{
		{PMID: "d1", Text: "one"},
		{PMID: "d2", Text: "two"},
		{PMID: "d3", Text: "three"},
	}
	tagged, err := remote.Tag(context.Background(), docs)
	if err != nil {
		t.Fatal("Tag returned error", err)
	}

	log.Lock()
	defer log.Unlock()
	if len(log.batches) != 2 || len(log.batches[0]) != 2 || len(log.batches[1]) != 1 {
		t.Error("Expected two batches of sizes 2 and 1", log.batches)
	}
	if len(tagged) != 3 {
		t.Fatal("Expected one tagged document per input", len(tagged))
	}
	for i, doc := range docs {
		if tagged[i].PMID != doc.PMID {
			t.Error("Batch outputs must concatenate in input order", i, tagged[i].PMID)
		}
	}
}

func TestRemoteRetriesFailedBatch(t *testing.T) {
	log := &requestLog{failFirst: true}
	server := taggerStub(t, log)
	defer server.Close()

	remote, err := NewRemote(RemoteParams{Endpoint: server.URL, MaxRetries: 2})
	if err != nil {
		t.Fatal("Failed to build remote tagger", err)
	}
	tagged, err := remote.Tag(context.Background(), []pubtator.Document{{PMID: "d1", Text: "one"}})
	if err != nil {
		t.Fatal("Tag should succeed after a retry", err)
	}
	if len(tagged) != 1 {
		t.Error("Expected the retried batch result", tagged)
	}
}

func TestRemoteReportsExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no model", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	remote, err := NewRemote(RemoteParams{Endpoint: server.URL, MaxRetries: 1})
	if err != nil {
		t.Fatal("Failed to build remote tagger", err)
	}
	if _, err := remote.Tag(context.Background(), []pubtator.Document{{PMID: "d1", Text: "one"}}); err == nil {
		t.Error("Tag must report a dead endpoint")
	}
}

func TestRemoteRejectsShortResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode([]*annotation.TaggedDocument{}); err != nil {
			t.Error("Failed to encode response", err)
		}
	}))
	defer server.Close()

	remote, err := NewRemote(RemoteParams{Endpoint: server.URL, MaxRetries: 1})
	if err != nil {
		t.Fatal("Failed to build remote tagger", err)
	}
	if _, err := remote.Tag(context.Background(), []pubtator.Document{{PMID: "d1", Text: "one"}}); err == nil {
		t.Error("A response shorter than the batch must be an error")
	}
}

func TestNewRemoteValidation(t *testing.T) {
	if _, err := NewRemote(RemoteParams{}); err == nil {
		t.Error("An empty endpoint must be rejected")
	}

	remote, err := NewRemote(RemoteParams{
		Endpoint:    "http://tagger.local/tag",
		EntityTypes: []annotation.EntityType{annotation.Disease, annotation.Gene},
	})
	if err != nil {
		t.Fatal("Failed to build remote tagger", err)
	}
	if !strings.Contains(remote.endpoint, "entity_types=disease%2Cgene") {
		t.Error("Entity types should be pinned on the endpoint", remote.endpoint)
	}
}
