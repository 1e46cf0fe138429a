package api

import (
	"text2phenotype.com/bioner/pipeline"
	"text2phenotype.com/bioner/pubtator"
	"encoding/json"
	"io/ioutil"
	"net/http"
)

type Request struct {
	Pipeline  pipeline.Pipeline
	Annotator *pipeline.Annotator
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:  "test_api",
		Text: string(msg),
	}
	logger.Info().Str("tid", request.Tid).Msg("Starting pipeline for request from API")
	resp, ok := <-req.Pipeline(request)
	if !ok {
		logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline failed for request from API")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

// ProcessPubTator annotates a batch of PubTator formatted documents. The
// response is a JSON array of annotated documents, or PubTator blocks with
// annotation rows when the request asks for format=pubtator.
func (req *Request) ProcessPubTator(w http.ResponseWriter, r *http.Request) {
	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	docs, err := pubtator.Read(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not parse PubTator request body")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(docs) == 0 {
		logger.Error().Int("status", http.StatusBadRequest).Msg("Request body carries no documents")
		http.Error(w, "no documents in request body", http.StatusBadRequest)
		return
	}

	logger.Info().Int("num_docs", len(docs)).Msg("Starting batch annotation for request from API")
	annotated, err := req.Annotator.AnnotateBatch(r.Context(), docs)
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Batch annotation failed")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "pubtator" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, doc := range annotated {
			if err := pubtator.WriteAnnotated(w, doc); err != nil {
				logger.Err(err).Msg("Failed to write annotated PubTator block")
				return
			}
		}
		logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(annotated); err != nil {
		logger.Err(err).Msg("Failed to encode response")
		return
	}
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
