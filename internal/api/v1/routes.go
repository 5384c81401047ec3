// Package v1 provides the REST API handlers for job submission and tracking.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/nodesync/internal/api/common"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/service"
	nodesync "github.com/stacklok/nodesync/internal/sync"
	"github.com/stacklok/nodesync/internal/versions"
)

const maxBodyBytes = 1 << 20

// CreateJobRequest is the body of POST /v1/jobs
type CreateJobRequest struct {
	JobUUID     string          `json:"job_uuid,omitempty"`
	ClusterUUID string          `json:"cluster_uuid"`
	Type        job.Type        `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// DeliveryResponse is the body of POST /v1/messages
type DeliveryResponse struct {
	Disposition nodesync.Disposition `json:"disposition"`
	Job         *job.Job             `json:"job"`
}

// Routes holds the handlers of the v1 API
type Routes struct {
	service service.JobService
}

// Router creates the router for the v1 API
func Router(svc service.JobService) http.Handler {
	routes := &Routes{service: svc}

	r := chi.NewRouter()
	r.Post("/messages", routes.deliverMessage)
	r.Post("/jobs", routes.createJob)
	r.Get("/jobs/{jobUUID}", routes.getJob)
	return r
}

// deliverMessage handles POST /v1/messages. The message is dispatched
// synchronously, as a queue delivery would be.
func (rr *Routes) deliverMessage(w http.ResponseWriter, r *http.Request) {
	var m nodesync.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&m); err != nil {
		common.WriteErrorResponse(w, "invalid message body: "+err.Error(), http.StatusBadRequest)
		return
	}

	j, disposition, err := rr.service.DeliverMessage(r.Context(), m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, DeliveryResponse{Disposition: disposition, Job: j}, http.StatusAccepted)
}

// createJob handles POST /v1/jobs
func (rr *Routes) createJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := []service.Option[service.CreateJobOptions]{
		service.WithClusterUUID(req.ClusterUUID),
		service.WithJobType(req.Type),
		service.WithPayload(req.Payload),
	}
	if req.JobUUID != "" {
		opts = append(opts, service.WithJobUUID(req.JobUUID))
	}

	j, err := rr.service.CreateJob(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, j, http.StatusCreated)
}

// getJob handles GET /v1/jobs/{jobUUID}
func (rr *Routes) getJob(w http.ResponseWriter, r *http.Request) {
	jobUUID, err := common.URLParam(r, "jobUUID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := rr.service.GetJob(r.Context(), jobUUID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, j, http.StatusOK)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrClusterNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.JobService) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func readinessHandler(svc service.JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
