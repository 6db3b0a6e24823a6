package realtime

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the gateway over HTTP: the websocket endpoint plus a REST
// mirror of the connection statistics for the operations dashboard.
type Handler struct {
	gateway *Gateway
	tracker *Tracker
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
}

func NewHandler(gateway *Gateway, tracker *Tracker, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		gateway: gateway,
		tracker: tracker,
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.ServeWS)

	// The socket endpoint is the public surface; stats serve internal
	// dashboards only.
	r.Route("/connections", func(r chi.Router) {
		r.Use(middleware.InternalOnly())
		r.Get("/stats", h.ConnectionStats)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.gateway.ServeWS(w, r)
}

func (h *Handler) ConnectionStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ConnectionStats")
	defer finish()
	log := h.log(r)

	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		apt.RespondError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	log.Debug("connection stats requested", "tenant_id", tenantID)
	apt.Respond(w, http.StatusOK, h.gateway.StatsPayload(tenantID), nil)
}
