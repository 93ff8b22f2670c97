package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rzbill/relay/internal/runtime"
	chatsvc "github.com/rzbill/relay/internal/services/chat"
)

// GeneralController serves health and hub statistics.
type GeneralController struct {
	rt   *runtime.Runtime
	chat *chatsvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, chat *chatsvc.Service) *GeneralController {
	return &GeneralController{rt: rt, chat: chat}
}

// RegisterRoutes registers /healthz and /stats.
func (c *GeneralController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", c.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", c.handleStats).Methods(http.MethodGet)
}

// handleHealth returns 200 {"status":"ok"} when the store answers a ping and
// 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *GeneralController) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResp{Hubs: c.chat.Stats()})
}
