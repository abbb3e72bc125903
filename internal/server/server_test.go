package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

type memStore struct {
	mu      sync.Mutex
	islands map[int64]models.Island
}

func (s *memStore) GetIsland(_ context.Context, userID int64) (*models.Island, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	island, ok := s.islands[userID]
	if !ok {
		return nil, nil
	}
	if island.Turnips != nil {
		week := *island.Turnips
		island.Turnips = &week
	}
	return &island, nil
}

func (s *memStore) SaveIsland(_ context.Context, island *models.Island) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *island
	if island.Turnips != nil {
		week := *island.Turnips
		stored.Turnips = &week
	}
	s.islands[island.UserID] = stored
	return nil
}

func (s *memStore) ListIslands(context.Context) ([]models.Island, error) {
	return nil, nil
}

func newTestServer(t *testing.T, opts ...journal.Option) *Server {
	t.Helper()
	c, err := turnips.DefaultCatalog()
	require.NoError(t, err)
	p := turnips.NewPredictor(c)
	store := &memStore{islands: make(map[int64]models.Island)}

	s := New(Config{
		Port:      0,
		Log:       zerolog.Nop(),
		Predictor: p,
		Journal:   journal.New(store, p, opts...),
		DevMode:   true,
	})
	s.now = func() time.Time { return time.Date(2020, time.April, 8, 10, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPredictPattern_Prior(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/predict/pattern", `{"buy_price": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp patternResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 4530.0/13082, resp.Probabilities[turnips.Fluctuating], 1e-9)
	assert.InDelta(t, 3385.0/13082, resp.Probabilities[turnips.SmallSpike], 1e-9)
	assert.Equal(t, turnips.Unknown, resp.MostLikely)
}

func TestPredictAll(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/predict", `{"previous_pattern": "unknown", "prices": [100, 100, 86, 82]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pred turnips.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Equal(t, 600, pred.Summary.WeekMax)
	assert.Equal(t, turnips.PriceRange{Min: 86, Max: 86}, pred.Summary.Prices[2])
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantKind   string
	}{
		{
			name:       "impossible prices",
			path:       "/api/predict",
			body:       `{"prices": [100, 100, 900]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "invalid_observations",
		},
		{
			name:       "sunday disagrees with buy price",
			path:       "/api/predict",
			body:       `{"prices": [100, 100], "buy_price": 97}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "inconsistent_buy_price",
		},
		{
			name:       "no buy price",
			path:       "/api/predict/profit",
			body:       `{"prices": [0, 0, 86]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "missing_buy_price",
		},
		{
			name:       "threshold not a number",
			path:       "/api/predict/profit?threshold=lots",
			body:       `{"buy_price": 100}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_threshold",
		},
		{
			name:       "negative threshold",
			path:       "/api/predict/profit?threshold=-5",
			body:       `{"buy_price": 100}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_threshold",
		},
		{
			name:       "unknown field",
			path:       "/api/predict",
			body:       `{"buy": 100}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "bad_request",
		},
		{
			name:       "unknown pattern",
			path:       "/api/predict/pattern",
			body:       `{"previous_pattern": "sideways"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp["kind"])
		})
	}
}

func TestProfit_DefaultsToBuyPrice(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/predict/profit", `{"buy_price": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp profitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100.0, resp.Threshold)
	assert.Zero(t, resp.Probabilities[0])
	assert.InDelta(t, 0.276639657544718, resp.Probabilities[2], 1e-9)
}

func TestIslandFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/api/islands/7/buy-price", `{"price": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/islands/7/prices", `{"day": "mon", "half": "am", "price": 86}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/islands/7/prices", `{"slot": 3, "price": 82}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp islandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Island.Turnips)
	assert.Equal(t, [turnips.SlotCount]int{100, 100, 86, 82}, resp.Island.Turnips.Prices)
	assert.Nil(t, resp.Rollover)

	rec = do(t, s, http.MethodGet, "/api/islands/7/prediction", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pred turnips.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Equal(t, 600, pred.Summary.WeekMax)

	rec = do(t, s, http.MethodPut, "/api/islands/7/past-pattern", `{"pattern": "small spike"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/islands/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = islandResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, turnips.SmallSpike, resp.Island.Turnips.PastPattern)
	assert.Equal(t, 86, resp.Island.Turnips.Prices[2])
}

func TestIsland_BadInput(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/islands/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/islands/7/prices", `{"slot": 14, "price": 90}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/islands/7/prices", `{"day": "wed", "half": "noon", "price": 90}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/islands/7/buy-price", `{"price": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/islands/7/profit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/predict/pattern", `{}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `turnips_queries_total{query="pattern"} 1`)
}

func TestPredictPattern_FollowsRolloverConfidence(t *testing.T) {
	body := `{"prices": [100, 100, 120]}`

	tests := []struct {
		name string
		opts []journal.Option
		want turnips.Pattern
	}{
		{name: "default confidence", want: turnips.Unknown},
		{name: "configured confidence", opts: []journal.Option{journal.WithRolloverConfidence(0.8)}, want: turnips.Fluctuating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts...)
			rec := do(t, s, http.MethodPost, "/api/predict/pattern", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp patternResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.InDelta(t, 0.889252, resp.Probabilities[turnips.Fluctuating], 1e-6)
			assert.Equal(t, tt.want, resp.MostLikely)
		})
	}
}

func TestPredict_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	body := `{"previous_pattern": "` + strings.Repeat("x", 8<<10) + `"}`

	rec := do(t, s, http.MethodPost, "/api/predict", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "too_large", resp["kind"])
}
