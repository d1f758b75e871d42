package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cinetile/models"
)

const (
	// PageSize is the fixed number of records in a full page.
	PageSize = 12

	// candidatePoolSize oversamples the generative source relative to the
	// page size to absorb the loss from missing posters, failed lookups
	// and duplicate ids. Kept small by contract so the unmanaged fan-out
	// stays bounded.
	candidatePoolSize = 40

	// maxEnrichConcurrency caps the parallel per-title lookups.
	maxEnrichConcurrency = 8
)

// SourceMode selects the candidate-source strategy for a Service.
type SourceMode string

const (
	SourceGemini SourceMode = "gemini"
	SourceTMDB   SourceMode = "tmdb"
)

var (
	ErrNotConfigured     = errors.New("discovery source not configured")
	ErrUpstream          = errors.New("discovery upstream unavailable")
	ErrMalformedResponse = errors.New("malformed discovery response")
	ErrUnknownGenre      = errors.New("unknown genre")
	ErrYearOutOfRange    = errors.New("year outside supported range")
	ErrBadPage           = errors.New("page must be a positive integer")
	ErrBadMovieID        = errors.New("unrecognized movie id")
)

// Query addresses one page of results. Page is 1-based and understood
// loosely by the candidate source: each page is an independent query
// differentiated only by the page hint, with no continuation token.
// ExcludeIDs is the caller's accumulated seen-id set for "load more";
// cross-page uniqueness is the caller's responsibility, the pipeline
// merely honors the set it is handed.
type Query struct {
	Genre      string
	Year       string
	Page       int
	ExcludeIDs []string
}

// Result is one page of ranked, deduplicated movies plus provenance.
type Result struct {
	Movies     []models.Movie  `json:"movies"`
	Sources    []models.Source `json:"sources,omitempty"`
	TotalPages int             `json:"totalPages,omitempty"`
	IsDegraded bool            `json:"isDegraded,omitempty"`
}

// Service orchestrates candidate discovery and metadata enrichment into
// pages. It is stateless across calls except for the session cache, which
// it owns so tests can construct isolated instances.
type Service struct {
	mode   SourceMode
	gemini *geminiClient
	tmdb   *tmdbClient
	omdb   *omdbClient
	cache  *sessionCache
}

func NewService(mode SourceMode, geminiAPIKey, tmdbAPIKey, omdbAPIKey string, httpc *http.Client) *Service {
	cache := newSessionCache()
	return &Service{
		mode:   mode,
		gemini: newGeminiClient(geminiAPIKey, httpc),
		tmdb:   newTMDBClient(tmdbAPIKey, httpc),
		omdb:   newOMDBClient(omdbAPIKey, httpc, cache),
		cache:  cache,
	}
}

// GetPage resolves one page for the query. An empty page with a nil error
// means the query simply matched nothing; errors are reserved for the
// candidate source being unusable.
func (s *Service) GetPage(ctx context.Context, q Query) (Result, error) {
	if err := validateQuery(q); err != nil {
		return Result{}, err
	}

	switch s.mode {
	case SourceTMDB:
		return s.tmdbPage(ctx, q)
	default:
		return s.geminiPage(ctx, q)
	}
}

func validateQuery(q Query) error {
	if !models.IsKnownGenre(q.Genre) {
		return fmt.Errorf("%w: %q", ErrUnknownGenre, q.Genre)
	}
	year, err := strconv.Atoi(q.Year)
	if err != nil || len(q.Year) != 4 {
		return fmt.Errorf("%w: %q", ErrYearOutOfRange, q.Year)
	}
	if year < models.MinYear || year > models.MaxYear {
		return fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: %d", ErrBadPage, q.Page)
	}
	return nil
}

// geminiPage runs the id-indirection strategy: ask the model for an
// oversampled pool of IMDb ids, then enrich each id via OMDb.
func (s *Service) geminiPage(ctx context.Context, q Query) (Result, error) {
	if !s.gemini.isConfigured() {
		// Degrade-with-flag: serve the archived preview rather than an
		// error or an empty page, and say so.
		log.Printf("[discovery] gemini api key missing; serving archived preview")
		movies := finalizePage(previewPage(), excludeSet(q.ExcludeIDs), PageSize)
		return Result{
			Movies:     movies,
			Sources:    []models.Source{{Title: "Archive Preview (Offline)", URI: "#"}},
			IsDegraded: true,
		}, nil
	}

	ids, err := s.gemini.candidateIDs(ctx, q.Genre, q.Year, q.Page, candidatePoolSize)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(ids) == 0 {
		return Result{Movies: []models.Movie{}}, nil
	}

	// Fan out one lookup per candidate, wait for every outcome. A failed
	// or timed-out lookup leaves a nil slot; it never cancels siblings.
	resolved := make([]*models.Movie, len(ids))
	p := pool.New().WithMaxGoroutines(maxEnrichConcurrency)
	for i, id := range ids {
		i, id := i, id
		p.Go(func() {
			resolved[i] = s.omdb.lookup(ctx, id)
		})
	}
	p.Wait()

	candidates := make([]models.Movie, 0, len(resolved))
	for _, m := range resolved {
		if m != nil {
			candidates = append(candidates, *m)
		}
	}
	log.Printf("[discovery] gemini page genre=%s year=%s page=%d pool=%d resolved=%d",
		q.Genre, q.Year, q.Page, len(ids), len(candidates))

	return Result{
		Movies: finalizePage(candidates, excludeSet(q.ExcludeIDs), PageSize),
		Sources: []models.Source{
			{Title: "Gemini 3 Flash", URI: "https://ai.google.dev/"},
			{Title: "OMDb API", URI: "https://www.omdbapi.com/"},
		},
	}, nil
}

// tmdbPage runs the structured strategy: one discover page of raw records,
// filtered locally, then enriched with IMDb ratings where possible.
func (s *Service) tmdbPage(ctx context.Context, q Query) (Result, error) {
	if !s.tmdb.isConfigured() {
		return Result{}, fmt.Errorf("%w: tmdb api key missing", ErrNotConfigured)
	}

	records, totalPages, err := s.tmdb.discover(ctx, q.Genre, q.Year, q.Page)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	filtered := make([]tmdbDiscoverMovie, 0, len(records))
	for _, rec := range records {
		if rec.PosterPath == "" || rec.Adult {
			continue
		}
		if !allowedLanguage(q.Genre, rec.OriginalLanguage) {
			continue
		}
		filtered = append(filtered, rec)
	}

	enriched := make([]models.Movie, len(filtered))
	p := pool.New().WithMaxGoroutines(maxEnrichConcurrency)
	for i, rec := range filtered {
		i, rec := i, rec
		p.Go(func() {
			enriched[i] = s.enrichTMDBRecord(ctx, rec, q.Genre)
		})
	}
	p.Wait()

	log.Printf("[discovery] tmdb page genre=%s year=%s page=%d raw=%d filtered=%d",
		q.Genre, q.Year, q.Page, len(records), len(filtered))

	return Result{
		Movies:     finalizePage(enriched, excludeSet(q.ExcludeIDs), PageSize),
		TotalPages: totalPages,
		Sources: []models.Source{
			{Title: "TMDB", URI: "https://www.themoviedb.org/"},
			{Title: "OMDb API", URI: "https://www.omdbapi.com/"},
		},
	}, nil
}

// enrichTMDBRecord builds the canonical record for a raw discover result.
// IMDb rating and vote count are best-effort: any failure along the
// external-id or OMDb hop falls back to TMDB's own vote average.
func (s *Service) enrichTMDBRecord(ctx context.Context, rec tmdbDiscoverMovie, genre string) models.Movie {
	id := strconv.FormatInt(rec.ID, 10)
	if cached, ok := s.cache.get(id); ok {
		return cached
	}

	movie := models.Movie{
		ID:               id,
		Title:            rec.Title,
		Year:             releaseYear(rec.ReleaseDate),
		Genre:            genre,
		Description:      rec.Overview,
		PosterURL:        tmdbPosterURL(rec.PosterPath),
		ThumbURL:         tmdbThumbURL(rec.PosterPath),
		BackdropURL:      tmdbPosterURL(rec.BackdropPath),
		Rating:           fmt.Sprintf("%.1f", rec.VoteAverage),
		IMDBVotes:        rec.VoteCount,
		OriginalLanguage: rec.OriginalLanguage,
	}
	if movie.Description == "" {
		movie.Description = "No description provided."
	}
	if rec.VoteAverage == 0 {
		movie.Rating = ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	imdbID, err := s.tmdb.externalIMDBID(lookupCtx, rec.ID)
	if err != nil {
		log.Printf("[discovery] external id lookup failed tmdbId=%d: %v", rec.ID, err)
	} else if imdbID != "" {
		if ref := s.omdb.lookup(ctx, imdbID); ref != nil {
			if ref.Rating != "" {
				movie.Rating = ref.Rating
			}
			if ref.IMDBVotes > 0 {
				movie.IMDBVotes = ref.IMDBVotes
			}
		}
	}

	s.cache.setOnce(id, movie)
	return movie
}

// MovieDetails fetches director and cast for the detail modal. Accepts both
// TMDB numeric ids and IMDb "tt" ids.
func (s *Service) MovieDetails(ctx context.Context, id string) (models.MovieDetails, error) {
	tmdbID, err := s.resolveTMDBID(ctx, id)
	if err != nil {
		return models.MovieDetails{}, err
	}
	details, err := s.tmdb.movieDetails(ctx, tmdbID)
	if err != nil {
		return models.MovieDetails{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return details, nil
}

// TrailerKey returns the YouTube trailer key for the movie, empty when none
// is published.
func (s *Service) TrailerKey(ctx context.Context, id string) (string, error) {
	tmdbID, err := s.resolveTMDBID(ctx, id)
	if err != nil {
		return "", err
	}
	key, err := s.tmdb.trailerKey(ctx, tmdbID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return key, nil
}

func (s *Service) resolveTMDBID(ctx context.Context, id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, ErrBadMovieID
	}
	if !s.tmdb.isConfigured() {
		return 0, fmt.Errorf("%w: tmdb api key missing", ErrNotConfigured)
	}
	if strings.HasPrefix(id, "tt") {
		tmdbID, err := s.tmdb.findMovieByIMDBID(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if tmdbID == 0 {
			return 0, fmt.Errorf("%w: %s", ErrBadMovieID, id)
		}
		return tmdbID, nil
	}
	tmdbID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || tmdbID <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrBadMovieID, id)
	}
	return tmdbID, nil
}

// CacheSize reports how many titles the session cache holds.
func (s *Service) CacheSize() int {
	return s.cache.len()
}

func excludeSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// finalizePage applies the tail of the pipeline: validity filter, exclude
// set, dedup by id keeping first occurrence in pool order, rank by rating
// descending with vote count as tie-break, truncate to the page size.
func finalizePage(candidates []models.Movie, exclude map[string]struct{}, pageSize int) []models.Movie {
	unique := make([]models.Movie, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, m := range candidates {
		if !hasValidPoster(m.PosterURL) {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if _, skip := exclude[m.ID]; skip {
			continue
		}
		seen[m.ID] = struct{}{}
		unique = append(unique, m)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		ri, rj := ratingValue(unique[i].Rating), ratingValue(unique[j].Rating)
		if ri != rj {
			return ri > rj
		}
		return unique[i].IMDBVotes > unique[j].IMDBVotes
	})

	if len(unique) > pageSize {
		unique = unique[:pageSize]
	}
	return unique
}

// ratingValue treats an absent or unparseable rating as the minimum.
func ratingValue(rating string) float64 {
	if rating == "" {
		return 0
	}
	v, err := strconv.ParseFloat(rating, 64)
	if err != nil {
		return 0
	}
	return v
}
