package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ridecast/ridecast/internal/api/models"
	"github.com/ridecast/ridecast/internal/api/response"
	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version        string
	buildTime      string
	conditions     *conditions.Service
	providerHealth func() []resilience.Health
}

// NewOpsHandler creates a new OpsHandler. conditionsService and
// providerHealth may be nil; the corresponding status sections are then
// omitted.
func NewOpsHandler(version, buildTime string, conditionsService *conditions.Service, providerHealth func() []resilience.Health) *OpsHandler {
	return &OpsHandler{
		version:        version,
		buildTime:      buildTime,
		conditions:     conditionsService,
		providerHealth: providerHealth,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready when no upstream circuit breaker is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	code := http.StatusOK
	if h.providerHealth != nil {
		for _, ph := range h.providerHealth() {
			if !ph.Healthy() {
				status = models.HealthStatusDegraded
				code = http.StatusServiceUnavailable
				break
			}
		}
	}
	response.JSON(w, r, code, models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - cache and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.conditions != nil {
		stats := h.conditions.Stats()
		detail := cacheDetail(stats)
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "conditions-cache",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	if h.providerHealth != nil {
		for _, ph := range h.providerHealth() {
			providerStatus := models.HealthStatusOK
			if !ph.Healthy() {
				providerStatus = models.HealthStatusDegraded
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, models.ProviderStatus{
				Provider:            ph.Name,
				Status:              providerStatus,
				CircuitState:        ph.State,
				Requests:            ph.Requests,
				Failures:            ph.Failures,
				ConsecutiveFailures: ph.ConsecutiveF,
			})
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func cacheDetail(stats conditions.CacheStats) string {
	return fmt.Sprintf("source=%s entries=%d fresh=%d", stats.Source, stats.Entries, stats.FreshEntries)
}
