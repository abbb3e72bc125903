package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

// maxBodyBytes bounds request bodies; a full week of prices is far smaller.
const maxBodyBytes = 4 << 10

var errBadRequest = errors.New("bad request")

// recordRequest is an island's week sent inline.
type recordRequest struct {
	PreviousPattern string `json:"previous_pattern"`
	Prices          []int  `json:"prices"`
	BuyPrice        int    `json:"buy_price"`
}

func (req recordRequest) record() (turnips.ObservationRecord, error) {
	rec := turnips.ObservationRecord{PreviousPattern: turnips.Unknown, BuyPrice: req.BuyPrice}
	if req.PreviousPattern != "" {
		pattern, err := turnips.ParsePattern(req.PreviousPattern)
		if err != nil {
			return rec, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		rec.PreviousPattern = pattern
	}
	if len(req.Prices) > turnips.SlotCount {
		return rec, fmt.Errorf("%w: %d prices, at most %d", errBadRequest, len(req.Prices), turnips.SlotCount)
	}
	copy(rec.Prices[:], req.Prices)
	return rec, nil
}

type priceRequest struct {
	Slot  *int   `json:"slot"`
	Day   string `json:"day"`
	Half  string `json:"half"`
	Price int    `json:"price"`
}

func (req priceRequest) slot() (int, error) {
	if req.Slot != nil {
		return *req.Slot, nil
	}
	day, err := models.ParseDay(req.Day)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if day == time.Sunday {
		return 0, nil
	}
	half, err := models.ParseHalf(req.Half)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return models.SlotFor(day, half), nil
}

type patternResponse struct {
	Probabilities [turnips.PatternCount]float64 `json:"probabilities"`
	MostLikely    turnips.Pattern               `json:"most_likely"`
}

type profitResponse struct {
	Threshold     float64                    `json:"threshold"`
	Probabilities [turnips.SlotCount]float64 `json:"probabilities"`
}

type islandResponse struct {
	Island   *models.Island    `json:"island"`
	Rollover *journal.Rollover `json:"rollover,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/predict
func (s *Server) handlePredictAll(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r, "all")
	if !ok {
		return
	}
	s.predictAll(w, rec)
}

// POST /api/predict/pattern
func (s *Server) handlePredictPattern(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r, "pattern")
	if !ok {
		return
	}
	s.predictPattern(w, rec)
}

// POST /api/predict/profit?threshold=N
func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r, "profit")
	if !ok {
		return
	}
	s.profit(w, r, rec)
}

// GET /api/islands/{userID}
func (s *Server) handleGetIsland(w http.ResponseWriter, r *http.Request) {
	island, ok := s.island(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, islandResponse{Island: island})
}

// GET /api/islands/{userID}/prediction
func (s *Server) handleIslandPrediction(w http.ResponseWriter, r *http.Request) {
	if island, ok := s.island(w, r); ok {
		s.predictAll(w, s.journal.Observation(island))
	}
}

// GET /api/islands/{userID}/pattern
func (s *Server) handleIslandPattern(w http.ResponseWriter, r *http.Request) {
	if island, ok := s.island(w, r); ok {
		s.predictPattern(w, s.journal.Observation(island))
	}
}

// GET /api/islands/{userID}/profit?threshold=N
func (s *Server) handleIslandProfit(w http.ResponseWriter, r *http.Request) {
	if island, ok := s.island(w, r); ok {
		s.profit(w, r, s.journal.Observation(island))
	}
}

// PUT /api/islands/{userID}/prices
func (s *Server) handleRecordPrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req priceRequest
	if !s.decode(w, r, "record", &req) {
		return
	}
	slot, err := req.slot()
	if err != nil {
		s.writeError(w, "record", err)
		return
	}
	rollover, err := s.journal.RecordPrice(r.Context(), userID, slot, req.Price, s.now())
	s.respondIsland(w, r, "record", userID, rollover, err)
}

// PUT /api/islands/{userID}/buy-price
func (s *Server) handleSetBuyPrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req struct {
		Price int `json:"price"`
	}
	if !s.decode(w, r, "buy_price", &req) {
		return
	}
	rollover, err := s.journal.SetBuyPrice(r.Context(), userID, req.Price, s.now())
	s.respondIsland(w, r, "buy_price", userID, rollover, err)
}

// PUT /api/islands/{userID}/past-pattern
func (s *Server) handleSetPastPattern(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req struct {
		Pattern string `json:"pattern"`
	}
	if !s.decode(w, r, "past_pattern", &req) {
		return
	}
	pattern, err := turnips.ParsePattern(req.Pattern)
	if err != nil {
		s.writeError(w, "past_pattern", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	err = s.journal.SetPastPattern(r.Context(), userID, pattern, s.now())
	s.respondIsland(w, r, "past_pattern", userID, journal.Rollover{}, err)
}

func (s *Server) predictAll(w http.ResponseWriter, rec turnips.ObservationRecord) {
	start := time.Now()
	pred, err := s.predictor.PredictAll(rec)
	if err != nil {
		s.writeError(w, "all", err)
		return
	}
	s.metrics.RecordQuery("all", time.Since(start))
	s.writeJSON(w, http.StatusOK, pred)
}

func (s *Server) predictPattern(w http.ResponseWriter, rec turnips.ObservationRecord) {
	start := time.Now()
	dist, err := s.predictor.PredictPattern(rec)
	if err != nil {
		s.writeError(w, "pattern", err)
		return
	}
	s.metrics.RecordQuery("pattern", time.Since(start))
	s.writeJSON(w, http.StatusOK, patternResponse{
		Probabilities: dist,
		MostLikely:    turnips.MostLikely(dist, s.confidence),
	})
}

func (s *Server) profit(w http.ResponseWriter, r *http.Request, rec turnips.ObservationRecord) {
	threshold := -1.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, "profit", fmt.Errorf("%w: threshold %q", turnips.ErrInvalidThreshold, raw))
			return
		}
		threshold = parsed
	} else if base, ok := rec.BasePrice(); ok {
		threshold = float64(base)
	} else {
		s.writeError(w, "profit", turnips.ErrMissingBuyPrice)
		return
	}

	start := time.Now()
	probs, err := s.predictor.ProbabilityGreater(rec, threshold)
	if err != nil {
		s.writeError(w, "profit", err)
		return
	}
	s.metrics.RecordQuery("profit", time.Since(start))
	s.writeJSON(w, http.StatusOK, profitResponse{Threshold: threshold, Probabilities: probs})
}

func (s *Server) respondIsland(w http.ResponseWriter, r *http.Request, query string, userID int64, rollover journal.Rollover, err error) {
	if err != nil {
		s.writeError(w, query, err)
		return
	}
	island, err := s.journal.Island(r.Context(), userID)
	if err != nil {
		s.writeError(w, query, err)
		return
	}
	resp := islandResponse{Island: island}
	if rollover.Started {
		resp.Rollover = &rollover
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) island(w http.ResponseWriter, r *http.Request) (*models.Island, bool) {
	userID, ok := s.userID(w, r)
	if !ok {
		return nil, false
	}
	island, err := s.journal.Island(r.Context(), userID)
	if err != nil {
		s.writeError(w, "island", err)
		return nil, false
	}
	return island, true
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}

func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request, query string) (turnips.ObservationRecord, bool) {
	var req recordRequest
	if !s.decode(w, r, query, &req) {
		return turnips.ObservationRecord{}, false
	}
	rec, err := req.record()
	if err != nil {
		s.writeError(w, query, err)
		return rec, false
	}
	return rec, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, query string, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, query, fmt.Errorf("%w: %w", errBadRequest, err))
		return false
	}
	return true
}

// errorKinds maps known errors to a status and a metrics label.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{turnips.ErrInvalidThreshold, http.StatusBadRequest, "invalid_threshold"},
	{journal.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{journal.ErrInvalidSlot, http.StatusBadRequest, "invalid_slot"},
	{turnips.ErrMissingBuyPrice, http.StatusUnprocessableEntity, "missing_buy_price"},
	{turnips.ErrInconsistentBuyPrice, http.StatusUnprocessableEntity, "inconsistent_buy_price"},
	{turnips.ErrInvalidObservations, http.StatusUnprocessableEntity, "invalid_observations"},
}

func (s *Server) writeError(w http.ResponseWriter, query string, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status, kind = http.StatusRequestEntityTooLarge, "too_large"
	} else {
		for _, k := range errorKinds {
			if errors.Is(err, k.err) {
				status, kind = k.status, k.kind
				break
			}
		}
	}
	s.metrics.RecordError(query, kind)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("query", query).Msg("Request failed")
		msg = "internal error"
	}
	s.writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
