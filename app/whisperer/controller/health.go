package controller

import (
	"net/http"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCardTypes lists every card the registry can compute, in
// registration order.
func (c *Controller) HandleCardTypes(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"types": c.App.Registry.Types(),
	})
}
