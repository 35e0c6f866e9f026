package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/usecase"
	"github.com/replykit/replykit/pkg/utils/errutil"
)

type patternResponse struct {
	ID                  string    `json:"id"`
	Category            string    `json:"category"`
	TriggerExamples     []string  `json:"trigger_examples"`
	ResponseTemplate    string    `json:"response_template"`
	ConfidenceScore     float64   `json:"confidence_score"`
	AutoExecuteEligible bool      `json:"auto_execute_eligible"`
	AutoExecuteEnabled  bool      `json:"auto_execute_enabled"`
	UsageCount          int       `json:"usage_count"`
	SuccessCount        int       `json:"success_count"`
	EditCount           int       `json:"edit_count"`
	RejectCount         int       `json:"reject_count"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	LastUsedAt          time.Time `json:"last_used_at,omitzero"`
}

func toPatternResponse(p *model.Pattern) patternResponse {
	return patternResponse{
		ID:                  p.ID.String(),
		Category:            p.Category.String(),
		TriggerExamples:     p.TriggerExamples,
		ResponseTemplate:    p.ResponseTemplate,
		ConfidenceScore:     p.ConfidenceScore,
		AutoExecuteEligible: p.AutoExecuteEligible,
		AutoExecuteEnabled:  p.AutoExecuteEnabled,
		UsageCount:          p.UsageCount,
		SuccessCount:        p.SuccessCount,
		EditCount:           p.EditCount,
		RejectCount:         p.RejectCount,
		Active:              p.Active,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		LastUsedAt:          p.LastUsedAt,
	}
}

type createPatternRequest struct {
	Category         string    `json:"category"`
	TriggerExamples  []string  `json:"trigger_examples"`
	ResponseTemplate string    `json:"response_template"`
	Embedding        []float32 `json:"embedding,omitempty"`
	ExpandTriggers   bool      `json:"expand_triggers,omitempty"`
}

type duplicateWarningResponse struct {
	PatternID       string  `json:"pattern_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

type createPatternResponse struct {
	Pattern  patternResponse            `json:"pattern"`
	Warnings []duplicateWarningResponse `json:"warnings,omitempty"`
}

func (s *Server) createPatternHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPatternRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	category, err := types.ParseCategory(req.Category)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	out, err := s.uc.CreatePattern(ctx, usecase.CreatePatternInput{
		Draft: model.PatternDraft{
			Category:         category,
			TriggerExamples:  req.TriggerExamples,
			ResponseTemplate: req.ResponseTemplate,
			Embedding:        req.Embedding,
		},
		ExpandTriggers: req.ExpandTriggers,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := createPatternResponse{
		Pattern: toPatternResponse(out.Pattern),
	}
	for _, warning := range out.Warnings {
		resp.Warnings = append(resp.Warnings, duplicateWarningResponse{
			PatternID:       warning.PatternID.String(),
			SimilarityScore: warning.SimilarityScore,
		})
	}

	respondJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) listPatternsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := model.PatternFilter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := types.ParseCategory(c)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		filter.Category = category
	}

	patterns, err := s.uc.ListPatterns(ctx, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := struct {
		Patterns []patternResponse `json:"patterns"`
	}{
		Patterns: make([]patternResponse, len(patterns)),
	}
	for i, p := range patterns {
		resp.Patterns[i] = toPatternResponse(p)
	}

	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getPatternHandler(w http.ResponseWriter, r *http.Request) {
	id := model.PatternID(chi.URLParam(r, "patternID"))

	pattern, err := s.uc.GetPattern(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toPatternResponse(pattern))
}

func (s *Server) mergePatternHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := model.PatternID(chi.URLParam(r, "patternID"))

	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.TargetID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("target_id is required"), http.StatusBadRequest)
		return
	}

	merged, err := s.uc.MergePatterns(ctx, sourceID, model.PatternID(req.TargetID))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toPatternResponse(merged))
}

func (s *Server) deactivatePatternHandler(w http.ResponseWriter, r *http.Request) {
	id := model.PatternID(chi.URLParam(r, "patternID"))

	pattern, err := s.uc.DeactivatePattern(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toPatternResponse(pattern))
}

func (s *Server) setAutoExecuteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.PatternID(chi.URLParam(r, "patternID"))

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	pattern, err := s.uc.SetAutoExecute(ctx, id, req.Enabled)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toPatternResponse(pattern))
}
