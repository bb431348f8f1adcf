package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/taskhive/taskhive-be/internal/apperr"
)

// SystemHandler exposes host-level stats for operators.
type SystemHandler struct{}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// SystemStats is the response shape for the stats endpoint.
type SystemStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemUsedMB     uint64  `json:"memUsedMb"`
	MemTotalMB    uint64  `json:"memTotalMb"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
}

// GetStats reports CPU, memory and uptime of the host.
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats SystemStats

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read memory stats")
		writeError(w, r, apperr.Internal(err))
		return
	}
	stats.MemUsedMB = vm.Used / 1024 / 1024
	stats.MemTotalMB = vm.Total / 1024 / 1024

	if uptime, err := host.Uptime(); err == nil {
		stats.UptimeSeconds = uptime
	}

	writeJSON(w, http.StatusOK, stats)
}
