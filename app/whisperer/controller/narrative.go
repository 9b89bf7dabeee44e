package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
)

// HandleNarrative computes the full card batch, folds it into a profile
// and synthesizes contradictions, flags and narratives on top.
func (c *Controller) HandleNarrative(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := wallet.ParseIdentity(vars["address"], r.URL.Query().Get("chain"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	batch := c.App.Orchestrator.GetAllCards(r.Context(), id, forceRefresh)
	profile := pipeline.BuildProfile(id, batch)
	bundle := c.App.Synthesizer.Compose(r.Context(), profile)

	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":   profile,
		"narrative": bundle,
	})
}
