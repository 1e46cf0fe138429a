package api

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/pipeline"
	"text2phenotype.com/bioner/pubannotation"
	"text2phenotype.com/bioner/pubtator"
	"text2phenotype.com/bioner/registry"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoTagger struct{}

func (echoTagger) Tag(_ context.Context, docs []pubtator.Document) ([]*annotation.TaggedDocument, error) {
	tagged := make([]*annotation.TaggedDocument, len(docs))
	for i, doc := range docs {
		tagged[i] = &annotation.TaggedDocument{
			PMID: doc.PMID,
			Text: doc.Text,
			Entities: map[annotation.EntityType][]*annotation.Mention{
				annotation.Disease: {
					{Start: 0, End: 4, Mention: doc.Text[:4], ID: annotation.IDList{"MESH:D003924"}},
				},
			},
			NumEntities: 1,
		}
	}
	return tagged, nil
}

func testRequest(t *testing.T) *Request {
	t.Helper()
	params := pipeline.GetParams([]annotation.Configuration{{
		Name:     "multi_task",
		Pipeline: annotation.MultiTaskPipeline,
	}}, 50)
	annotator, err := pipeline.NewAnnotator(params, echoTagger{}, nil, registry.NewTable())
	require.NoError(t, err)
	return &Request{
		Pipeline:  annotator.Pipeline(),
		Annotator: annotator,
	}
}

func TestProcessDataRejectsNonPost(t *testing.T) {
	recorder := httptest.NewRecorder()
	testRequest(t).ProcessData(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestProcessDataAnnotatesText(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("some document text"))
	testRequest(t).ProcessData(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var doc pubannotation.Document
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &doc))
	require.Equal(t, "some document text", doc.Text)
	require.Len(t, doc.Annotations, 1)
	require.Equal(t, annotation.Disease, doc.Annotations[0].Obj)
}

func TestProcessDataReportsPipelineFailure(t *testing.T) {
	failing := func(request pipeline.Request) <-chan string {
		ch := make(chan string)
		close(ch)
		return ch
	}
	req := &Request{Pipeline: failing}
	recorder := httptest.NewRecorder()
	req.ProcessData(recorder, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("text")))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestProcessPubTatorReturnsJSON(t *testing.T) {
	body := "d1|t|\nd1|a|first text\n\nd2|t|\nd2|a|other text\n\n"
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/pubtator", strings.NewReader(body))
	testRequest(t).ProcessPubTator(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var docs []pubannotation.Document
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	require.Equal(t, "d1", docs[0].PMID)
	require.Equal(t, "d2", docs[1].PMID)
	require.Len(t, docs[0].Annotations, 1)
}

func TestProcessPubTatorReturnsPubTator(t *testing.T) {
	body := "d1|t|\nd1|a|first text\n\n"
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/pubtator?format=pubtator", strings.NewReader(body))
	testRequest(t).ProcessPubTator(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	want := "d1|t|\nd1|a|first text\n" +
		"d1\t0\t4\tfirs\tdisease\tMESH:D003924\n\n"
	require.Equal(t, want, recorder.Body.String())
}

func TestProcessPubTatorRejectsBadRequests(t *testing.T) {
	req := testRequest(t)

	recorder := httptest.NewRecorder()
	req.ProcessPubTator(recorder, httptest.NewRequest(http.MethodGet, "/pubtator", nil))
	require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	recorder = httptest.NewRecorder()
	req.ProcessPubTator(recorder, httptest.NewRequest(http.MethodPost, "/pubtator", strings.NewReader("no pipes\n")))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	req.ProcessPubTator(recorder, httptest.NewRequest(http.MethodPost, "/pubtator", strings.NewReader("")))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
