package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"walletfolio/internal/database"
)

// SystemHandlers serves health and status endpoints.
type SystemHandlers struct {
	dataDir   string
	db        *database.DB
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(dataDir string, db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		dataDir:   dataDir,
		db:        db,
		startTime: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  "database check failed",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"uptimeSeconds": int64(time.Since(h.startTime).Seconds()),
	}

	if stats, err := h.db.GetStats(); err == nil {
		status["database"] = stats
	} else {
		h.log.Warn().Err(err).Msg("Failed to read database stats")
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		status["disk"] = map[string]any{
			"totalBytes":  usage.Total,
			"freeBytes":   usage.Free,
			"usedPercent": usage.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to read disk usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory"] = map[string]any{
			"totalBytes":  memStat.Total,
			"usedPercent": memStat.UsedPercent,
		}
	}

	h.writeJSON(w, http.StatusOK, status)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
