// README: Google Places lookups for destination hints, cached per destination.
package maps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"googlemaps.github.io/maps"
)

const (
	hintCacheTTL   = 6 * time.Hour
	minHintRating  = 4.0
	maxHintResults = 5
)

// Place represents a simplified location result.
type Place struct {
	Name             string
	Address          string
	Rating           float32
	PlaceID          string
	UserRatingsTotal int
}

// textSearcher is the slice of *maps.Client used here.
type textSearcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client   textSearcher
	cache    *cache.Cache
	language string
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newPlacesService(client), nil
}

func newPlacesService(client textSearcher) *PlacesService {
	return &PlacesService{
		client:   client,
		cache:    cache.New(hintCacheTTL, time.Hour),
		language: "fr",
	}
}

// TopAttractions returns the best-rated attractions for a destination, most
// reviewed first. Results, including empty ones, are cached per destination.
func (s *PlacesService) TopAttractions(ctx context.Context, destination string) ([]Place, error) {
	key := strings.ToLower(strings.TrimSpace(destination))
	if key == "" {
		return nil, nil
	}
	if v, ok := s.cache.Get(key); ok {
		return v.([]Place), nil
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    "top attractions in " + destination,
		Language: s.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []Place
	for _, r := range resp.Results {
		if r.Rating < minHintRating {
			continue
		}
		results = append(results, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Rating:           r.Rating,
			PlaceID:          r.PlaceID,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UserRatingsTotal > results[j].UserRatingsTotal
	})
	if len(results) > maxHintResults {
		results = results[:maxHintResults]
	}

	s.cache.Set(key, results, cache.DefaultExpiration)
	return results, nil
}
