package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinetile/models"
	"cinetile/services/discovery"
)

type discoveryService interface {
	GetPage(context.Context, discovery.Query) (discovery.Result, error)
	MovieDetails(context.Context, string) (models.MovieDetails, error)
	TrailerKey(context.Context, string) (string, error)
}

var _ discoveryService = (*discovery.Service)(nil)

type DiscoverHandler struct {
	Service discoveryService
}

func NewDiscoverHandler(s discoveryService) *DiscoverHandler {
	return &DiscoverHandler{Service: s}
}

// TrailerResponse carries the YouTube video key for a title's trailer.
type TrailerResponse struct {
	Key string `json:"key"`
}

// GenresResponse lists the selectable genres and the year range the
// discovery pipeline accepts.
type GenresResponse struct {
	Genres  []string `json:"genres"`
	MinYear int      `json:"minYear"`
	MaxYear int      `json:"maxYear"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Movies serves one ranked page of discovery results.
func (h *DiscoverHandler) Movies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if pageStr := strings.TrimSpace(query.Get("page")); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = parsed
	}

	req := discovery.Query{
		Genre: strings.TrimSpace(query.Get("genre")),
		Year:  strings.TrimSpace(query.Get("year")),
		Page:  page,
	}
	if req.Genre == "" {
		req.Genre = models.GenreAll
	}
	if exclude := strings.TrimSpace(query.Get("exclude")); exclude != "" {
		for _, id := range strings.Split(exclude, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.ExcludeIDs = append(req.ExcludeIDs, id)
			}
		}
	}

	result, err := h.Service.GetPage(r.Context(), req)
	if err != nil {
		status := statusForServiceError(err)
		if status >= 500 {
			log.Printf("[discover] movies error genre=%s year=%s page=%d: %v", req.Genre, req.Year, req.Page, err)
		}
		writeError(w, status, err.Error())
		return
	}

	if result.Movies == nil {
		result.Movies = []models.Movie{}
	}
	if result.Sources == nil {
		result.Sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, result)
}

// Details serves the director and cast for a single title.
func (h *DiscoverHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "movie id is required")
		return
	}

	details, err := h.Service.MovieDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, discovery.ErrBadMovieID) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("[discover] details error id=%s: %v", id, err)
		writeError(w, statusForServiceError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Trailer serves the YouTube key of a title's trailer, empty when none exists.
func (h *DiscoverHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "movie id is required")
		return
	}

	key, err := h.Service.TrailerKey(r.Context(), id)
	if err != nil {
		if errors.Is(err, discovery.ErrBadMovieID) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("[discover] trailer error id=%s: %v", id, err)
		writeError(w, statusForServiceError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TrailerResponse{Key: key})
}

// Genres serves the static genre list and accepted year range.
func (h *DiscoverHandler) Genres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GenresResponse{
		Genres:  models.Genres(),
		MinYear: models.MinYear,
		MaxYear: models.MaxYear,
	})
}

func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, discovery.ErrUnknownGenre),
		errors.Is(err, discovery.ErrYearOutOfRange),
		errors.Is(err, discovery.ErrBadPage),
		errors.Is(err, discovery.ErrBadMovieID):
		return http.StatusBadRequest
	case errors.Is(err, discovery.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
