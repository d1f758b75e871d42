package discovery

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestBuildOMDBMovie(t *testing.T) {
	tests := []struct {
		name  string
		data  omdbTitle
		valid bool
	}{
		{
			name:  "valid record",
			data:  omdbTitle{Response: "True", IMDBID: "tt0133093", Title: "The Matrix", Poster: "https://img/m.jpg", IMDBRating: "8.7", IMDBVotes: "1,234,567"},
			valid: true,
		},
		{
			name:  "lookup miss",
			data:  omdbTitle{Response: "False"},
			valid: false,
		},
		{
			name:  "poster sentinel",
			data:  omdbTitle{Response: "True", IMDBID: "tt0000001", Poster: "N/A"},
			valid: false,
		},
		{
			name:  "relative poster url",
			data:  omdbTitle{Response: "True", IMDBID: "tt0000001", Poster: "/poster.jpg"},
			valid: false,
		},
		{
			name:  "missing id",
			data:  omdbTitle{Response: "True", Poster: "https://img/p.jpg"},
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildOMDBMovie(tt.data)
			if tt.valid && m == nil {
				t.Fatal("expected a movie, got nil")
			}
			if !tt.valid && m != nil {
				t.Fatalf("expected nil, got %+v", m)
			}
		})
	}
}

func TestBuildOMDBMovieRatingAndVotes(t *testing.T) {
	m := buildOMDBMovie(omdbTitle{
		Response: "True", IMDBID: "tt0133093", Title: "The Matrix",
		Poster: "https://img/m.jpg", IMDBRating: "8.7", IMDBVotes: "1,234,567",
	})
	if m == nil {
		t.Fatal("expected movie")
	}
	if m.Rating != "8.7" {
		t.Errorf("rating = %q, want 8.7", m.Rating)
	}
	if m.IMDBVotes != 1234567 {
		t.Errorf("votes = %d, want 1234567", m.IMDBVotes)
	}

	m = buildOMDBMovie(omdbTitle{
		Response: "True", IMDBID: "tt0000002", Poster: "https://img/p.jpg", IMDBRating: "N/A", IMDBVotes: "N/A",
	})
	if m == nil {
		t.Fatal("expected movie")
	}
	if m.Rating != "" {
		t.Errorf("sentinel rating should be dropped, got %q", m.Rating)
	}
	if m.IMDBVotes != 0 {
		t.Errorf("sentinel votes should be 0, got %d", m.IMDBVotes)
	}
}

func TestParseVoteCount(t *testing.T) {
	tests := map[string]int{
		"1,234,567": 1234567,
		"512":       512,
		"N/A":       0,
		"":          0,
		"abc":       0,
	}
	for input, want := range tests {
		if got := parseVoteCount(input); got != want {
			t.Errorf("parseVoteCount(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestLookupSoftFailures(t *testing.T) {
	// Non-success statuses and transport errors must yield nil, never an
	// error surfaced to the pipeline, and must not poison the cache.
	statuses := []int{http.StatusNotFound, http.StatusUnauthorized}
	for _, status := range statuses {
		rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(status, `{}`), nil
		})
		c := newOMDBClient("key", &http.Client{Transport: rt}, nil)
		if m := c.lookup(context.Background(), "tt0000001"); m != nil {
			t.Errorf("status %d: expected nil, got %+v", status, m)
		}
		if c.cache.len() != 0 {
			t.Errorf("status %d: failed lookup landed in cache", status)
		}
	}
}

func TestLookupTimeoutIsSoftFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	c := newOMDBClient("key", &http.Client{Transport: rt}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if m := c.lookup(ctx, "tt0000001"); m != nil {
		t.Fatalf("expected nil on timeout, got %+v", m)
	}
}

func TestLookupCacheHitSkipsNetwork(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		id := req.URL.Query().Get("i")
		return jsonResponse(http.StatusOK, omdbResponse(id, "Movie", "https://img/p.jpg", "7.5", 10)), nil
	})
	c := newOMDBClient("key", &http.Client{Transport: rt}, nil)

	first := c.lookup(context.Background(), "tt0000001")
	if first == nil {
		t.Fatal("expected movie")
	}
	second := c.lookup(context.Background(), "tt0000001")
	if second == nil {
		t.Fatal("expected cached movie")
	}
	if calls != 1 {
		t.Fatalf("expected 1 network call, got %d", calls)
	}
	if *first != *second {
		t.Errorf("cached record differs: %+v vs %+v", first, second)
	}
}
