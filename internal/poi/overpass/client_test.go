package overpass_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/poi"
	"github.com/geoagent/geoagent/internal/poi/overpass"
	"github.com/geoagent/geoagent/internal/provider"
)

var timesSquare = geo.Coordinate{Lat: 40.7580, Lon: -73.9855}

func newTestClient(url string) *overpass.Client {
	return overpass.NewClient(overpass.ClientConfig{
		BaseURL: url,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Logger:  zerolog.Nop(),
	})
}

func elementsPayload() map[string]any {
	return map[string]any{
		"elements": []map[string]any{
			{
				"type": "node", "id": 101, "lat": 40.7590, "lon": -73.9845,
				"tags": map[string]string{
					"name": "Joe's Pizza", "amenity": "restaurant",
					"addr:housenumber": "1435", "addr:street": "Broadway", "addr:city": "New York",
					"phone": "+1 646-559-4878", "opening_hours": "Mo-Su 10:00-04:00; PH off",
					"price_range": "$",
				},
			},
			{
				"type": "way", "id": 202,
				"center": map[string]float64{"lat": 40.7614, "lon": -73.9776},
				"tags":   map[string]string{"name": "Hotel Edison", "tourism": "hotel", "stars": "4", "website": "https://edisonhotelnyc.com"},
			},
			{
				"type": "node", "id": 303, "lat": 40.7585, "lon": -73.9850,
				"tags": map[string]string{"amenity": "bench"},
			},
		},
	}
}

func TestClient_Nearby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := r.URL.Query().Get("data")
		assert.Contains(t, data, "[out:json]")
		assert.Contains(t, data, "node(around:1000,40.758000,-73.985500)")
		assert.Contains(t, data, `["amenity"~"^(restaurant|fast_food|food_court)$"]`)
		assert.Contains(t, data, "out center tags;")
		_ = json.NewEncoder(w).Encode(elementsPayload())
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	defer client.Close()

	places, err := client.Nearby(context.Background(), timesSquare, 1000, poi.CategoryRestaurant)
	require.NoError(t, err)
	require.Len(t, places, 2, "unnamed elements are skipped")

	pizza := places[0]
	assert.Equal(t, "node/101", pizza.ID)
	assert.Equal(t, "Joe's Pizza", pizza.Name)
	assert.Equal(t, poi.CategoryRestaurant, pizza.Category)
	assert.Equal(t, "1435 Broadway, New York", pizza.Address)
	assert.Equal(t, "+1 646-559-4878", pizza.Phone)
	assert.Equal(t, []string{"Mo-Su 10:00-04:00", "PH off"}, pizza.OpeningHours)
	require.NotNil(t, pizza.PriceLevel)
	assert.Equal(t, 1, *pizza.PriceLevel)
	assert.Nil(t, pizza.Rating)

	hotel := places[1]
	assert.Equal(t, "way/202", hotel.ID)
	assert.Equal(t, 40.7614, hotel.Lat)
	assert.Equal(t, -73.9776, hotel.Lon)
	require.NotNil(t, hotel.Rating)
	assert.Equal(t, 4.0, *hotel.Rating)
	assert.Equal(t, "https://edisonhotelnyc.com", hotel.Website)
}

func TestClient_Nearby_AnyCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := r.URL.Query().Get("data")
		for _, key := range []string{"amenity", "shop", "tourism", "leisure"} {
			assert.Contains(t, data, `["`+key+`"]`)
		}
		_ = json.NewEncoder(w).Encode(elementsPayload())
	}))
	defer server.Close()

	places, err := newTestClient(server.URL).Nearby(context.Background(), timesSquare, 500, "")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, poi.CategoryRestaurant, places[0].Category)
	assert.Equal(t, poi.CategoryHotel, places[1].Category)
}

func TestClient_Nearby_UnknownCategoryUsesAmenity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("data"), `["amenity"~"^(library)$"]`)
		_ = json.NewEncoder(w).Encode(map[string]any{"elements": []any{}})
	}))
	defer server.Close()

	places, err := newTestClient(server.URL).Nearby(context.Background(), timesSquare, 500, "library")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestClient_Nearby_InvalidRatingTagsIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"elements": []map[string]any{{
				"type": "node", "id": 1, "lat": 40.75, "lon": -73.98,
				"tags": map[string]string{"name": "Odd Hotel", "tourism": "hotel", "stars": "7", "price_range": "$$$$$"},
			}},
		})
	}))
	defer server.Close()

	places, err := newTestClient(server.URL).Nearby(context.Background(), timesSquare, 500, poi.CategoryHotel)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Nil(t, places[0].Rating)
	assert.Nil(t, places[0].PriceLevel)
}

func TestClient_Nearby_Errors(t *testing.T) {
	t.Run("invalid center", func(t *testing.T) {
		_, err := newTestClient("http://localhost").Nearby(context.Background(), geo.Coordinate{Lat: 100}, 500, "")
		assert.ErrorIs(t, err, provider.ErrInput)
	})

	t.Run("rate limited upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Nearby(context.Background(), timesSquare, 500, "")
		assert.ErrorIs(t, err, provider.ErrTransient)
	})

	t.Run("element out of range", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"elements": []map[string]any{{"type": "node", "id": 1, "lat": 95.0, "lon": 0.0, "tags": map[string]string{"name": "Nowhere"}}},
			})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Nearby(context.Background(), timesSquare, 500, "")
		assert.ErrorIs(t, err, provider.ErrValidation)
	})
}

func TestClient_LimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		BaseURL: server.URL,
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
		Logger:  zerolog.Nop(),
	})
	defer client.Close()

	_, err := client.Nearby(context.Background(), timesSquare, 500, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Nearby(ctx, timesSquare, 500, "")
	assert.Error(t, err)
}
