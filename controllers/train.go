package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"climatefarm/ml"
	"climatefarm/models"
)

// TrainModel fits a new model from an optional data file and replaces the
// stored artifact.
func (h *Handler) TrainModel(c *gin.Context) {
	var req models.TrainModelRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	start := time.Now()
	report, err := h.trainer.Train(c.Request.Context(), req.Filename)
	h.recordTrainingRun(c.Request.Context(), req.Filename, report, err, time.Since(start))

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ml.ErrInvalidFilename) {
			status = http.StatusBadRequest
		}
		h.hub.Broadcast(EventTraining, gin.H{"status": models.RunFailed, "error": err.Error()})
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := models.TrainModelResponse{
		Status:   "trained",
		ModelID:  report.ModelID,
		RMSE:     report.RMSE,
		Rows:     report.Rows,
		Strategy: report.Strategy,
	}
	h.hub.Broadcast(EventTraining, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) recordTrainingRun(ctx context.Context, filename string, report *ml.TrainReport, trainErr error, elapsed time.Duration) {
	run := &models.TrainingRun{
		ID:              uuid.NewString(),
		Source:          filename,
		Status:          models.RunSucceeded,
		DurationSeconds: elapsed.Seconds(),
		CreatedAt:       time.Now().UTC(),
	}
	if report != nil {
		run.ModelID = report.ModelID
		run.Source = report.Source
		run.Strategy = report.Strategy
		run.Rows = report.Rows
		run.RMSE = report.RMSE
	}
	if trainErr != nil {
		run.Status = models.RunFailed
		run.Error = trainErr.Error()
	}
	// A stored model is not rolled back if the history write fails.
	if err := h.repo.SaveTrainingRun(context.WithoutCancel(ctx), run); err != nil {
		h.logger.Error("failed to record training run", "run_id", run.ID, "error", err)
	}
}

// GetModelStatus reports whether a trained model is stored and describes it.
func (h *Handler) GetModelStatus(c *gin.Context) {
	artifact, err := h.store.Load()
	if errors.Is(err, ml.ErrNoModel) {
		c.JSON(http.StatusOK, gin.H{"exists": false, "model": models.ModelFallback})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exists": true,
		"model":  models.ModelTrained,
		"info":   artifactInfo(artifact),
	})
}

func artifactInfo(a *ml.Artifact) gin.H {
	return gin.H{
		"id":         a.ID,
		"features":   a.Features,
		"trained_at": a.TrainedAt,
		"source":     a.Source,
		"strategy":   a.Strategy,
		"rows":       a.Rows,
		"rmse":       a.RMSE,
		"trees":      len(a.Forest.Trees),
	}
}

// ListTrainingRuns returns the most recent training runs.
func (h *Handler) ListTrainingRuns(c *gin.Context) {
	runs, err := h.repo.ListTrainingRuns(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch training runs"})
		return
	}
	if runs == nil {
		runs = []models.TrainingRun{}
	}
	c.JSON(http.StatusOK, runs)
}
