package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kamusis/talkrec/internal/metrics"
	"github.com/kamusis/talkrec/internal/recommend"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type talksResponse struct {
	Count int             `json:"count"`
	Talks []artifact.Talk `json:"talks"`
}

type recommendationJSON struct {
	Rank int `json:"rank"`
	artifact.Talk
	Score float64 `json:"score"`
}

type recommendationsResponse struct {
	Title   string               `json:"title"`
	K       int                  `json:"k"`
	Results []recommendationJSON `json:"results"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Talks   int    `json:"talks"`
	ModelID string `json:"model_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Talks:   s.rec.Len(),
		ModelID: s.rec.Manifest().ModelID,
	})
}

func (s *Server) handleTalks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_argument", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	talks := recommend.FilterTalks(s.rec.Talks(), q.Get("q"), limit)
	if talks == nil {
		talks = []artifact.Talk{}
	}
	writeJSON(w, http.StatusOK, talksResponse{Count: len(talks), Talks: talks})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	k := s.defaultK
	if v := q.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			metrics.RecordRecommendation(metrics.OutcomeInvalidArgument, 0)
			writeError(w, http.StatusBadRequest, "invalid_argument", "k must be an integer")
			return
		}
		k = n
	}

	_, span := s.tracer.Start(r.Context(), "recommend",
		trace.WithAttributes(attribute.String("talk.title", title), attribute.Int("k", k)))
	defer span.End()

	start := time.Now()
	recs, err := s.rec.Recommend(title, k)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, recommend.ErrNotFound):
			metrics.RecordRecommendation(metrics.OutcomeNotFound, elapsed)
			writeError(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, recommend.ErrInvalidArgument):
			metrics.RecordRecommendation(metrics.OutcomeInvalidArgument, elapsed)
			writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		default:
			metrics.RecordRecommendation(metrics.OutcomeError, elapsed)
			s.log.Error().Err(err).Str("title", title).Msg("recommendation failed")
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}
	metrics.RecordRecommendation(metrics.OutcomeOK, elapsed)
	span.SetAttributes(attribute.Int("results", len(recs)))

	out := recommendationsResponse{Title: title, K: k, Results: make([]recommendationJSON, len(recs))}
	for i, rec := range recs {
		out.Results[i] = recommendationJSON{Rank: rec.Rank, Talk: rec.Talk, Score: rec.Score}
	}
	writeJSON(w, http.StatusOK, out)
}
