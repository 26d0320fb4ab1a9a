package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/api/response"
	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
	"github.com/NealChanAI/stock-investment/internal/domain/stock"
	"github.com/NealChanAI/stock-investment/internal/service/screen"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	GetLatestRun(ctx context.Context) ([]*snapshot.Snapshot, error)
	GetByCode(ctx context.Context, code string) (*snapshot.Snapshot, error)
}

// SnapshotHandler exposes stored analysis results.
type SnapshotHandler struct {
	reader SnapshotReader
	engine *screen.Engine
}

// NewSnapshotHandler creates the snapshot handler.
func NewSnapshotHandler(reader SnapshotReader, engine *screen.Engine) *SnapshotHandler {
	return &SnapshotHandler{reader: reader, engine: engine}
}

// LatestRunResponse wraps one run's snapshots.
type LatestRunResponse struct {
	Count     int                  `json:"count"`
	Snapshots []*snapshot.Snapshot `json:"snapshots"`
}

// ScreenResponse wraps matched screening results.
type ScreenResponse struct {
	Count   int                        `json:"count"`
	Rules   []string                   `json:"rules"`
	Results []snapshot.ScreeningResult `json:"results"`
}

// GetLatestRun handles GET /api/v1/snapshots/latest.
func (h *SnapshotHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.reader.GetLatestRun(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoResults) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNoResults, "no analysis runs stored")
			return
		}
		log.Error().Err(err).Msg("Failed to load latest run")
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "failed to load latest run")
		return
	}
	response.JSON(w, http.StatusOK, LatestRunResponse{Count: len(snaps), Snapshots: snaps})
}

// GetByCode handles GET /api/v1/snapshots/{code}.
func (h *SnapshotHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	prefixed, _, err := stock.Normalize(code)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeInvalidParameter, "malformed stock code")
		return
	}

	snap, err := h.reader.GetByCode(r.Context(), prefixed)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "no snapshot for "+prefixed)
			return
		}
		log.Error().Err(err).Str("code", prefixed).Msg("Failed to load snapshot")
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "failed to load snapshot")
		return
	}
	response.JSON(w, http.StatusOK, snap)
}

// ScreenLatest handles GET /api/v1/screen/latest: the default rules
// applied to the most recent run.
func (h *SnapshotHandler) ScreenLatest(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.reader.GetLatestRun(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoResults) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNoResults, "no analysis runs stored")
			return
		}
		log.Error().Err(err).Msg("Failed to load latest run")
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "failed to load latest run")
		return
	}

	results := h.engine.Screen(snaps)
	if results == nil {
		results = []snapshot.ScreeningResult{}
	}
	response.JSON(w, http.StatusOK, ScreenResponse{
		Count:   len(results),
		Rules:   h.engine.RuleIDs(),
		Results: results,
	})
}
