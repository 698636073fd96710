// Package health expone los endpoints de actuator.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/systemrpg/backend/internal/http/helpers"
	"github.com/systemrpg/backend/internal/store/core"
)

// Controller maneja /actuator/health.
type Controller struct {
	store core.Store
}

// NewController crea el controller de health.
func NewController(store core.Store) *Controller {
	return &Controller{store: store}
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

type componentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health maneja GET /actuator/health
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:     "UP",
		Components: map[string]componentStatus{},
	}

	if err := c.store.Ping(ctx); err != nil {
		resp.Status = "DOWN"
		resp.Components["db"] = componentStatus{Status: "DOWN", Detail: err.Error()}
		helpers.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Components["db"] = componentStatus{Status: "UP"}

	helpers.WriteJSON(w, http.StatusOK, resp)
}
