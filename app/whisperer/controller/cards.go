package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
)

// queryInt reads an integer query parameter, falling back on absence or junk.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// HandleCard computes (or serves from cache) a single card.
func (c *Controller) HandleCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := wallet.ParseIdentity(vars["address"], r.URL.Query().Get("chain"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	result, err := c.App.Orchestrator.GetCard(r.Context(), id, vars["type"], forceRefresh)
	if err != nil {
		if errors.Is(err, cards.ErrUnknownCardType) {
			c.writeError(w, http.StatusBadRequest, "unknown card type: "+vars["type"])
			return
		}
		c.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c.writeJSON(w, http.StatusOK, result)
}

// HandleCards computes a batch of cards concurrently. With no types
// parameter every registered card is computed.
func (c *Controller) HandleCards(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := wallet.ParseIdentity(vars["address"], r.URL.Query().Get("chain"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	var batch interface{}
	if len(types) == 0 {
		batch = c.App.Orchestrator.GetAllCards(r.Context(), id, forceRefresh)
	} else {
		batch = c.App.Orchestrator.GetCards(r.Context(), id, types, forceRefresh)
	}

	c.writeJSON(w, http.StatusOK, batch)
}

// HandleCardHistory lists recent persisted calculations for one card.
func (c *Controller) HandleCardHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if c.App.Store == nil {
		c.writeError(w, http.StatusServiceUnavailable, "card history requires persistence to be enabled")
		return
	}

	id, err := wallet.ParseIdentity(vars["address"], r.URL.Query().Get("chain"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cardType := vars["type"]
	if !c.App.Registry.Has(cardType) {
		c.writeError(w, http.StatusBadRequest, "unknown card type: "+cardType)
		return
	}

	limit := queryInt(r, "limit", 20)
	history, err := c.App.Store.CardHistory(r.Context(), id.Address, cardType, limit)
	if err != nil {
		c.App.Logger.Error("card history query failed", zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, "failed to load card history")
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_address": id.Address,
		"card_type":      cardType,
		"history":        history,
	})
}
