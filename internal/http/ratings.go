package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dragy007/Movie-RecS/internal/domain"
	"github.com/Dragy007/Movie-RecS/internal/gemini"
	"github.com/Dragy007/Movie-RecS/internal/recommend"
	"github.com/Dragy007/Movie-RecS/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

var allowedRatings = map[int]struct{}{
	1: {}, 2: {}, 3: {}, 4: {}, 5: {},
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ratingCreateRequest struct {
	Title  string `json:"title"`
	Rating int    `json:"rating"`
}

type posterResponse struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type ratedMovieResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Rating      int            `json:"rating"`
	Summary     string         `json:"summary"`
	Poster      posterResponse `json:"poster"`
	ReleaseDate *string        `json:"releaseDate,omitempty"`
	VoteAverage *float64       `json:"voteAverage,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type ratedMovieListResponse struct {
	Items []ratedMovieResponse `json:"items"`
}

type analysisResponse struct {
	MovieTypes string `json:"movieTypes"`
}

type recommendedMovieResponse struct {
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	Poster      posterResponse `json:"poster"`
	ReleaseDate *string        `json:"releaseDate,omitempty"`
	VoteAverage *float64       `json:"voteAverage,omitempty"`
}

type recommendationListResponse struct {
	Items []recommendedMovieResponse `json:"items"`
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req ratingCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required")
		return
	}
	if _, ok := allowedRatings[req.Rating]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be an integer between 1 and 5")
		return
	}

	movie, err := s.svc.RateMovie(r.Context(), userID, title, req.Rating)
	if err != nil {
		s.logger.Printf("submit rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to store rating")
		return
	}

	s.respondJSON(w, http.StatusCreated, toRatedMovieResponse(movie))
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	movies, err := s.svc.ListRated(r.Context(), userID)
	if err != nil {
		s.logger.Printf("list ratings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to list ratings")
		return
	}

	items := make([]ratedMovieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toRatedMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, ratedMovieListResponse{Items: items})
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	movie, err := s.svc.GetRated(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to load rating")
		return
	}

	s.respondJSON(w, http.StatusOK, toRatedMovieResponse(movie))
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	movieTypes, err := s.svc.Analyze(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNoRatedMovies):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Rate at least one movie before requesting an analysis")
		case errors.Is(err, gemini.ErrGenerationFailed):
			s.logger.Printf("analysis generation error: %v", err)
			s.respondError(w, http.StatusBadGateway, "GENERATION_FAILED", "Preference analysis is temporarily unavailable")
		default:
			s.logger.Printf("analysis error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to load rated movies")
		}
		return
	}

	s.respondJSON(w, http.StatusOK, analysisResponse{MovieTypes: movieTypes})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	summary, found := s.svc.Sessions().Summary(userID)
	if !found {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.respondJSON(w, http.StatusOK, analysisResponse{MovieTypes: summary})
}

func (s *Server) handleRunRecommendations(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	recs, err := s.svc.Recommend(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNoAnalysis):
			s.respondError(w, http.StatusConflict, "ANALYSIS_REQUIRED", "Run a preference analysis before requesting recommendations")
		case errors.Is(err, gemini.ErrGenerationFailed):
			s.logger.Printf("recommendation generation error: %v", err)
			s.respondError(w, http.StatusBadGateway, "GENERATION_FAILED", "Recommendations are temporarily unavailable")
		default:
			s.logger.Printf("recommendation error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build recommendations")
		}
		return
	}

	s.respondJSON(w, http.StatusOK, toRecommendationListResponse(recs))
}

func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	recs := s.svc.Sessions().Recommendations(userID)
	s.respondJSON(w, http.StatusOK, toRecommendationListResponse(recs))
}

func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return "", false
	}
	return userID, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toRatedMovieResponse(movie domain.RatedMovie) ratedMovieResponse {
	return ratedMovieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Rating:      movie.Rating,
		Summary:     movie.Summary,
		Poster:      toPosterResponse(movie.Poster),
		ReleaseDate: movie.ReleaseDate,
		VoteAverage: movie.VoteAverage,
		CreatedAt:   movie.CreatedAt,
	}
}

func toRecommendationListResponse(recs []domain.RecommendedMovie) recommendationListResponse {
	items := make([]recommendedMovieResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recommendedMovieResponse{
			Title:       rec.Title,
			Summary:     rec.Summary,
			Poster:      toPosterResponse(rec.Poster),
			ReleaseDate: rec.ReleaseDate,
			VoteAverage: rec.VoteAverage,
		})
	}
	return recommendationListResponse{Items: items}
}

func toPosterResponse(poster domain.PosterRef) posterResponse {
	return posterResponse{
		Kind: string(poster.Kind),
		URL:  poster.Value,
	}
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
