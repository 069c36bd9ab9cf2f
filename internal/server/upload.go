package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smartspend/smartspend/internal/engine"
	"github.com/smartspend/smartspend/internal/jobs"
)

// maxUploadBytes caps statement uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type uploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type jobStatusResponse struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Rows        int        `json:"rows"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A CSV file is required")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a CSV file.")
		return
	}

	rows, err := engine.ReadStatement(file)
	if err != nil {
		var missing *engine.MissingColumnsError
		if errors.As(err, &missing) {
			writeError(w, http.StatusBadRequest, missing.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse CSV file")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "CSV file contains no transactions")
		return
	}

	job := &jobs.CategorizeBatchJob{
		UserID:     user.ID,
		Rows:       rows,
		MaxRetries: s.maxRetries,
	}
	if err := s.publisher.PublishCategorizeBatch(r.Context(), job); err != nil {
		s.logger.Error("Failed to enqueue batch", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to queue processing job")
		return
	}

	s.logger.Info("Statement uploaded",
		"user_id", user.ID,
		"filename", header.Filename,
		"rows", len(rows),
		"job_id", job.JobID)

	writeJSON(w, http.StatusAccepted, uploadResponse{
		JobID:   job.JobID,
		Status:  "processing_started",
		Message: fmt.Sprintf("Processing %d transactions in the background.", len(rows)),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	jobID := r.PathValue("id")

	job, err := s.jobStatus.GetJob(r.Context(), jobID)
	if err != nil || job.UserID != user.ID {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse{
		JobID:       job.JobID,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
		Rows:        len(job.Rows),
	})
}
