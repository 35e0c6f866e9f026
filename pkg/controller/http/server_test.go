package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/replykit/replykit/pkg/controller/http"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository/memory"
	"github.com/replykit/replykit/pkg/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	srv := httptest.NewServer(httpctrl.New(usecase.New(repo)))
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	gt.NoError(t, err).Required()
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	gt.NoError(t, err).Required()
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(v)).Required()
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	gt.NoError(t, err).Required()
	defer resp.Body.Close()
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
}

func TestPatternLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	// create
	resp := postJSON(t, srv.URL+"/api/patterns", map[string]any{
		"category":          "hours",
		"trigger_examples":  []string{"what time do you open"},
		"response_template": "We are open 9am to 6pm.",
		"embedding":         []float32{1, 0, 0},
	})
	gt.Value(t, resp.StatusCode).Equal(http.StatusCreated)

	var created struct {
		Pattern struct {
			ID              string  `json:"id"`
			ConfidenceScore float64 `json:"confidence_score"`
			Active          bool    `json:"active"`
		} `json:"pattern"`
	}
	decodeBody(t, resp, &created)
	gt.String(t, created.Pattern.ID).NotEqual("")
	gt.Value(t, created.Pattern.ConfidenceScore).Equal(50.0)
	gt.Bool(t, created.Pattern.Active).True()

	// get
	resp2, err := http.Get(srv.URL + "/api/patterns/" + created.Pattern.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, resp2.StatusCode).Equal(http.StatusOK)
	resp2.Body.Close()

	// list filtered by category
	resp3, err := http.Get(srv.URL + "/api/patterns?category=hours&active=true")
	gt.NoError(t, err).Required()
	var listed struct {
		Patterns []json.RawMessage `json:"patterns"`
	}
	decodeBody(t, resp3, &listed)
	gt.Array(t, listed.Patterns).Length(1)

	// deactivate
	resp4 := postJSON(t, srv.URL+"/api/patterns/"+created.Pattern.ID+"/deactivate", map[string]any{})
	gt.Value(t, resp4.StatusCode).Equal(http.StatusOK)
	var deactivated struct {
		Active bool `json:"active"`
	}
	decodeBody(t, resp4, &deactivated)
	gt.Bool(t, deactivated.Active).False()
}

func TestDecideAndFeedbackOverHTTP(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	_, err := repo.Pattern().Insert(ctx, &model.Pattern{
		Category:         types.CategoryHours,
		TriggerExamples:  []string{"what time do you open"},
		Embedding:        []float32{1, 0, 0},
		ResponseTemplate: "We are open 9am to 6pm.",
		ConfidenceScore:  60,
		Active:           true,
	})
	gt.NoError(t, err).Required()

	resp := postJSON(t, srv.URL+"/api/decide", map[string]any{
		"message_id": "msg-http-1",
		"category":   "hours",
		"embedding":  []float32{1, 0, 0},
	})
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

	var decision struct {
		Action        string `json:"action"`
		MatchRecordID string `json:"match_record_id"`
		ResponseText  string `json:"response_text"`
	}
	decodeBody(t, resp, &decision)
	gt.Value(t, decision.Action).Equal("SUGGEST")
	gt.String(t, decision.MatchRecordID).NotEqual("")
	gt.Value(t, decision.ResponseText).Equal("We are open 9am to 6pm.")

	// accept the suggestion
	resp2 := postJSON(t, srv.URL+"/api/feedback", map[string]any{
		"match_record_id": decision.MatchRecordID,
		"action":          "accepted",
	})
	gt.Value(t, resp2.StatusCode).Equal(http.StatusOK)

	var feedback struct {
		Pattern struct {
			ConfidenceScore float64 `json:"confidence_score"`
			UsageCount      int     `json:"usage_count"`
		} `json:"pattern"`
	}
	decodeBody(t, resp2, &feedback)
	gt.Value(t, feedback.Pattern.ConfidenceScore).Equal(62.0)
	gt.Value(t, feedback.Pattern.UsageCount).Equal(1)

	// second feedback for the same match record conflicts
	resp3 := postJSON(t, srv.URL+"/api/feedback", map[string]any{
		"match_record_id": decision.MatchRecordID,
		"action":          "rejected",
	})
	gt.Value(t, resp3.StatusCode).Equal(http.StatusConflict)
	resp3.Body.Close()
}

func TestDecideValidationOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing message_id", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/decide", map[string]any{
			"embedding": []float32{1, 0, 0},
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
		resp.Body.Close()
	})

	t.Run("missing embedding without embedder", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/decide", map[string]any{
			"message_id":   "msg-x",
			"message_text": "hello",
		})
		// no Gemini configured in tests; server cannot embed
		gt.Value(t, resp.StatusCode).Equal(http.StatusInternalServerError)
		resp.Body.Close()
	})

	t.Run("invalid category", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/decide", map[string]any{
			"message_id": "msg-y",
			"category":   "bogus",
			"embedding":  []float32{1, 0, 0},
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
		resp.Body.Close()
	})
}

func TestUnknownPatternReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/patterns/" + model.NewPatternID().String())
	gt.NoError(t, err).Required()
	defer resp.Body.Close()
	gt.Value(t, resp.StatusCode).Equal(http.StatusNotFound)
}
