package models

// Movie is the canonical enriched title record returned by the discovery
// pipeline. A Movie is only considered valid when PosterURL is a non-empty
// absolute http(s) URL; records without a usable poster are dropped before
// they ever reach a page.
type Movie struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	PosterURL   string `json:"posterUrl"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	BackdropURL string `json:"backdropUrl,omitempty"`
	// Rating is the numeric-as-string external rating (e.g. "8.4"); empty
	// when the source has none. Ranking treats a missing rating as 0.
	Rating           string `json:"rating,omitempty"`
	IMDBVotes        int    `json:"imdbVotes,omitempty"`
	OriginalLanguage string `json:"originalLanguage,omitempty"`
}

// MovieDetails carries the detail-modal enrichments fetched on demand.
type MovieDetails struct {
	Director string   `json:"director"`
	Cast     []string `json:"cast"`
}

// Source is a provenance entry describing where a page's data came from.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GenreIDs maps the UI genre labels to TMDB category ids.
var GenreIDs = map[string]int{
	"Action":      28,
	"Comedy":      35,
	"Drama":       18,
	"Sci-Fi":      878,
	"Horror":      27,
	"Romance":     10749,
	"Animation":   16,
	"Documentary": 99,
	"Thriller":    53,
}

// GenreAll is the wildcard genre accepted alongside the keys of GenreIDs.
const GenreAll = "All"

// Supported release-year range for discovery queries.
const (
	MinYear = 1950
	MaxYear = 2024
)

// Genres returns the enumerated genre labels in a stable order, wildcard first.
func Genres() []string {
	return []string{
		GenreAll,
		"Action", "Comedy", "Drama", "Sci-Fi", "Horror",
		"Romance", "Animation", "Documentary", "Thriller",
	}
}

// IsKnownGenre reports whether the label is the wildcard or a mapped genre.
func IsKnownGenre(genre string) bool {
	if genre == GenreAll {
		return true
	}
	_, ok := GenreIDs[genre]
	return ok
}
