package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"cinetile/models"
)

const omdbBaseURL = "https://www.omdbapi.com/"

// lookupTimeout bounds a single per-title enrichment call. A timed-out
// lookup is treated the same as a failed one: the title is skipped.
const lookupTimeout = 3 * time.Second

// omdbClient resolves a bare IMDb id into a full metadata record. Lookups
// are soft-failing: any transport error, timeout, non-2xx status, or invalid
// record shape yields nil rather than an error, so one bad title never sinks
// a page.
type omdbClient struct {
	apiKey string
	httpc  *http.Client
	cache  *sessionCache
}

func newOMDBClient(apiKey string, httpc *http.Client, cache *sessionCache) *omdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	if cache == nil {
		cache = newSessionCache()
	}
	return &omdbClient{apiKey: strings.TrimSpace(apiKey), httpc: httpc, cache: cache}
}

func (c *omdbClient) isConfigured() bool {
	return c.apiKey != ""
}

// omdbTitle is the subset of the OMDb lookup response we consume.
type omdbTitle struct {
	Response   string `json:"Response"`
	IMDBID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBVotes  string `json:"imdbVotes"`
}

// lookup returns the enriched record for the id, or nil when the title
// cannot be resolved to a valid record. The session cache is consulted
// first; a successful network lookup populates it (write-once).
func (c *omdbClient) lookup(ctx context.Context, id string) *models.Movie {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if cached, ok := c.cache.get(id); ok {
		return &cached
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("i", id)
	params.Set("apikey", c.apiKey)
	endpoint := omdbBaseURL + "?" + params.Encode()

	var data omdbTitle
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("omdb lookup %s: %s", id, resp.Status)
			}
			if resp.StatusCode >= 300 {
				return retry.Unrecoverable(fmt.Errorf("omdb lookup %s: %s", id, resp.Status))
			}
			if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
				return retry.Unrecoverable(fmt.Errorf("omdb decode %s: %w", id, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[omdb] lookup failed id=%s: %v", id, err)
		return nil
	}

	movie := buildOMDBMovie(data)
	if movie == nil {
		return nil
	}
	c.cache.setOnce(movie.ID, *movie)
	return movie
}

// buildOMDBMovie validates the response shape and converts it to a Movie.
// The poster is the sole hard-reject criterion: absent, the "N/A" sentinel,
// or any non-absolute URL disqualifies the record.
func buildOMDBMovie(data omdbTitle) *models.Movie {
	if data.Response != "True" {
		return nil
	}
	if !hasValidPoster(data.Poster) {
		return nil
	}
	id := data.IMDBID
	if id == "" {
		return nil
	}
	m := &models.Movie{
		ID:          id,
		Title:       data.Title,
		Year:        data.Year,
		Genre:       data.Genre,
		Description: data.Plot,
		PosterURL:   data.Poster,
	}
	if data.IMDBRating != "" && data.IMDBRating != "N/A" {
		m.Rating = data.IMDBRating
	}
	m.IMDBVotes = parseVoteCount(data.IMDBVotes)
	return m
}

func hasValidPoster(poster string) bool {
	return poster != "" && poster != "N/A" && strings.HasPrefix(poster, "http")
}

// parseVoteCount parses OMDb's comma-grouped vote counts ("1,234,567").
func parseVoteCount(votes string) int {
	votes = strings.ReplaceAll(strings.TrimSpace(votes), ",", "")
	if votes == "" || votes == "N/A" {
		return 0
	}
	n, err := strconv.Atoi(votes)
	if err != nil {
		return 0
	}
	return n
}
