package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"watchparty/internal/cache"
	"watchparty/internal/models"
	"watchparty/internal/services"
	"watchparty/internal/storage/memory"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func newTestAPI(t *testing.T) (*API, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.AddSeries(
		models.Series{ID: 1, Name: "Dark Signal", Genre: "sci-fi", Year: 2021, Episodes: 10, Platforms: []string{"Netflix"}, Rating: ptr(8.7)},
		models.Series{ID: 2, Name: "Harbor Lights", Genre: "drama", Year: 2019, Episodes: 8, Platforms: []string{"Hulu"}, Rating: ptr(7.2)},
	)
	store.AddUsers(
		models.User{ID: "user_1", Name: "Ana"},
		models.User{ID: "user_2", Name: "Bruno"},
	)

	log := logrus.New()
	log.SetOutput(io.Discard)
	c := cache.NewMemory()

	catalog := services.NewCatalogService(store.Series(), store.Users(), c, log)
	ratings := services.NewRatingService(store.Ratings(), store.Series(), store.Users(), c, log)
	parties := services.NewPartyService(store.Parties(), store.Series(), store.Users(), c, log)

	return New(catalog, ratings, parties, log), store
}

func doRequest(t *testing.T, api *API, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestListSeriesEndpoint(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/series", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestGetSeriesNotFound(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/series/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestRateEndpointValidation(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/series/1/rating", map[string]any{
		"user_id": "user_1", "stars": services.MaxStars + 1, "review": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateThenReviewsFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/series/1/rating", map[string]any{
		"user_id": "user_1", "stars": 7, "review": "great",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodGet, "/api/series/1/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Ana", resp.Data[0].UserName)
	assert.Equal(t, "great", resp.Data[0].Review)
}

func TestPartyLifecycleOverHTTP(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/watchparties", map[string]any{
		"series_id":    1,
		"host_id":      "user_1",
		"scheduled_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		"platform":     "Netflix",
		"invited":      []string{"user_2"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.WatchParty `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "W1", created.Data.ID)

	// second join is a 409, not a failure
	rec = doRequest(t, api, http.MethodPost, "/api/watchparties/W1/join", map[string]any{"user_id": "user_2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, api, http.MethodGet, "/api/watchparties/W1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var lobby struct {
		Data models.WatchPartyDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lobby))
	assert.Equal(t, "Dark Signal", lobby.Data.SeriesName)
	assert.Equal(t, []string{"Ana", "Bruno"}, lobby.Data.ParticipantNames)
}

func TestMalformedBody(t *testing.T) {
	api, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/series/1/watchlist", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
