package controllers

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-logr/logr"

	"vibin_matcher/models"
	"vibin_matcher/utils"
)

// BatchRunner runs one batch matching cycle.
type BatchRunner interface {
	RunBatchCycle(ctx context.Context) models.RunResult
}

// BatchController triggers batch cycles over HTTP and remembers the last result.
type BatchController struct {
	Runner BatchRunner
	Log    logr.Logger

	mu   sync.Mutex
	last *models.RunResult
}

// NewBatchController initializes the controller
func NewBatchController(runner BatchRunner, log logr.Logger) *BatchController {
	return &BatchController{Runner: runner, Log: log}
}

// Trigger runs a cycle and records its result. The scheduler ticker uses it
// as well as the HTTP handler.
func (c *BatchController) Trigger(ctx context.Context) models.RunResult {
	result := c.Runner.RunBatchCycle(ctx)
	c.mu.Lock()
	c.last = &result
	c.mu.Unlock()
	return result
}

// LastResult returns the most recent result, if any.
func (c *BatchController) LastResult() (models.RunResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return models.RunResult{}, false
	}
	return *c.last, true
}

// HandleRun - Run a batch cycle now
func (c *BatchController) HandleRun(w http.ResponseWriter, r *http.Request) {
	c.Log.Info("batch run requested", "remote", r.RemoteAddr)

	// The cycle is not tied to the request; a dropped client must not abort it.
	result := c.Trigger(context.WithoutCancel(r.Context()))

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	utils.WriteJSONResponse(w, status, result)
}

// HandleLast - Fetch the result of the most recent cycle
func (c *BatchController) HandleLast(w http.ResponseWriter, r *http.Request) {
	result, ok := c.LastResult()
	if !ok {
		utils.WriteJSONResponse(w, http.StatusNotFound, map[string]string{"error": "no batch run yet"})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, result)
}
