package statements

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmorgal/bankfeed/internal/job"
)

const maxUploadBytes = 32 << 20

// Service is the slice of the job service the handler needs.
type Service interface {
	Submit(ctx context.Context, templateID, fileName string, r io.Reader) (*job.Job, error)
	Status(ctx context.Context, id uuid.UUID) (*job.Job, error)
}

type Handler struct {
	jobs Service
}

func NewHandler(jobs Service) *Handler {
	return &Handler{jobs: jobs}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/jobs/{jobID}", h.status)
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type statusResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	TransactionCount int    `json:"transaction_count,omitempty"`
	Error            string `json:"error,omitempty"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	templateID := r.FormValue("template_id")
	if templateID == "" {
		writeError(w, http.StatusBadRequest, "template_id field is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	j, err := h.jobs.Submit(r.Context(), templateID, header.Filename, file)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "unknown template") {
			status = http.StatusBadRequest
		}

		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		JobID:  j.ID.String(),
		Status: string(j.Status),
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	j, err := h.jobs.Status(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		JobID:            j.ID.String(),
		Status:           string(j.Status),
		TransactionCount: j.TransactionCount,
		Error:            j.ErrorMessage,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
