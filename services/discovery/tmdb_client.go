package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinetile/models"
)

// Minimal TMDB v3 client (discover, external ids, credits and videos)

const (
	tmdbBaseURL   = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p/original"
	tmdbThumbBase = "https://image.tmdb.org/t/p/w500"
)

type tmdbClient struct {
	apiKey string
	httpc  *http.Client
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{apiKey: strings.TrimSpace(apiKey), httpc: httpc}
}

func (c *tmdbClient) isConfigured() bool {
	return c.apiKey != ""
}

func (c *tmdbClient) doGET(ctx context.Context, endpoint string, q url.Values, v any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	u := endpoint + "?" + q.Encode()

	var lastErr error
	backoff := 300 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[tmdb] http error (attempt %d/3) endpoint=%s: %v", attempt+1, endpoint, err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("tmdb get %s failed: %s", endpoint, resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return fmt.Errorf("tmdb get %s failed: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(body)))
		}
		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("tmdb decode %s: %w", endpoint, err)
		}
		return nil
	}
	return lastErr
}

// tmdbDiscoverMovie is a raw record from the discover endpoint.
type tmdbDiscoverMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Adult            bool    `json:"adult"`
}

// discover queries the structured discovery endpoint for one page of raw
// candidate records. Genre is mapped to a TMDB category id, the release-date
// range spans the whole target year, adult content is excluded and short
// runtimes are filtered out upstream.
func (c *tmdbClient) discover(ctx context.Context, genre, year string, page int) ([]tmdbDiscoverMovie, int, error) {
	params := url.Values{}
	params.Set("primary_release_date.gte", year+"-01-01")
	params.Set("primary_release_date.lte", year+"-12-31")
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("with_runtime.gte", "60")
	params.Set("sort_by", "popularity.desc")
	if genre != models.GenreAll {
		if genreID, ok := models.GenreIDs[genre]; ok {
			params.Set("with_genres", fmt.Sprintf("%d", genreID))
		}
	}

	var resp struct {
		Results    []tmdbDiscoverMovie `json:"results"`
		TotalPages int                 `json:"total_pages"`
	}
	if err := c.doGET(ctx, tmdbBaseURL+"/discover/movie", params, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Results, resp.TotalPages, nil
}

// externalIMDBID resolves a TMDB movie id to its IMDb id, empty when unknown.
func (c *tmdbClient) externalIMDBID(ctx context.Context, tmdbID int64) (string, error) {
	var resp struct {
		IMDBID string `json:"imdb_id"`
	}
	endpoint := fmt.Sprintf("%s/movie/%d/external_ids", tmdbBaseURL, tmdbID)
	if err := c.doGET(ctx, endpoint, nil, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.IMDBID), nil
}

// findMovieByIMDBID resolves an IMDb "tt" id to a TMDB movie id, 0 when
// the title is unknown to TMDB.
func (c *tmdbClient) findMovieByIMDBID(ctx context.Context, imdbID string) (int64, error) {
	var resp struct {
		MovieResults []struct {
			ID int64 `json:"id"`
		} `json:"movie_results"`
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	endpoint := fmt.Sprintf("%s/find/%s", tmdbBaseURL, url.PathEscape(imdbID))
	if err := c.doGET(ctx, endpoint, params, &resp); err != nil {
		return 0, err
	}
	if len(resp.MovieResults) == 0 {
		return 0, nil
	}
	return resp.MovieResults[0].ID, nil
}

// movieDetails fetches the detail-modal enrichments: director and the first
// castLimit billed cast members.
func (c *tmdbClient) movieDetails(ctx context.Context, tmdbID int64) (models.MovieDetails, error) {
	const castLimit = 15

	var resp struct {
		Credits struct {
			Cast []struct {
				Name string `json:"name"`
			} `json:"cast"`
			Crew []struct {
				Name string `json:"name"`
				Job  string `json:"job"`
			} `json:"crew"`
		} `json:"credits"`
	}
	endpoint := fmt.Sprintf("%s/movie/%d", tmdbBaseURL, tmdbID)
	params := url.Values{}
	params.Set("append_to_response", "credits")
	if err := c.doGET(ctx, endpoint, params, &resp); err != nil {
		return models.MovieDetails{}, err
	}

	details := models.MovieDetails{Director: "N/A", Cast: []string{}}
	for _, person := range resp.Credits.Crew {
		if person.Job == "Director" {
			details.Director = person.Name
			break
		}
	}
	for _, person := range resp.Credits.Cast {
		details.Cast = append(details.Cast, person.Name)
		if len(details.Cast) == castLimit {
			break
		}
	}
	return details, nil
}

// trailerKey returns the YouTube key of the first trailer or teaser, empty
// when the movie has none.
func (c *tmdbClient) trailerKey(ctx context.Context, tmdbID int64) (string, error) {
	var resp struct {
		Results []struct {
			Site string `json:"site"`
			Type string `json:"type"`
			Key  string `json:"key"`
		} `json:"results"`
	}
	endpoint := fmt.Sprintf("%s/movie/%d/videos", tmdbBaseURL, tmdbID)
	if err := c.doGET(ctx, endpoint, nil, &resp); err != nil {
		return "", err
	}
	for _, v := range resp.Results {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			return v.Key, nil
		}
	}
	return "", nil
}

// allowedLanguage implements the per-genre original-language allow-list:
// Action additionally admits Cantonese and Mandarin titles.
func allowedLanguage(genre, lang string) bool {
	switch lang {
	case "en", "it", "fr":
		return true
	case "cn", "zh":
		return genre == "Action"
	default:
		return false
	}
}

// releaseYear extracts the 4-digit year from a TMDB release date.
func releaseYear(releaseDate string) string {
	if len(releaseDate) >= 4 {
		return releaseDate[:4]
	}
	return "N/A"
}

func tmdbPosterURL(path string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBase + path
}

func tmdbThumbURL(path string) string {
	if path == "" {
		return ""
	}
	return tmdbThumbBase + path
}
