package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/efreitasn/marketsim/internal/engine"
	"github.com/efreitasn/marketsim/internal/sim"
)

// defaultDepth is the number of aggregated price levels /book returns per
// side when no depth parameter is given.
const defaultDepth = 10

// SimHandler serves read-only views of a running simulation.
type SimHandler struct {
	sim *sim.Simulation
}

// NewSimHandler creates a SimHandler for the given simulation.
func NewSimHandler(s *sim.Simulation) *SimHandler {
	return &SimHandler{sim: s}
}

// simulationResponse is the response for GET /simulation.
type simulationResponse struct {
	sim.Snapshot
	Records int `json:"records"`
}

// GetSimulation returns run progress: state, tick, and last price.
func (h *SimHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, simulationResponse{
		Snapshot: h.sim.Snapshot(),
		Records:  h.sim.Collector().Len(),
	})
}

// pricesResponse is the response for GET /prices.
type pricesResponse struct {
	RunID  string    `json:"run_id"`
	Prices []float64 `json:"prices"`
}

// GetPrices returns the closing-price series, initial price first.
func (h *SimHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, pricesResponse{
		RunID:  h.sim.Collector().RunID(),
		Prices: h.sim.Prices(),
	})
}

// GetRecords returns the full per-tick series.
func (h *SimHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.sim.Collector().Records())
}

// bookResponse is the response for GET /book.
type bookResponse struct {
	Bids         []engine.PriceLevel `json:"bids"`
	Asks         []engine.PriceLevel `json:"asks"`
	CentralPrice *float64            `json:"central_price"` // nil when one-sided
	SnapshotAt   time.Time           `json:"snapshot_at"`
}

// GetBook returns aggregated book depth, best levels first. The optional
// depth query parameter caps the number of levels per side.
func (h *SimHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	depth := defaultDepth
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, "invalid_depth", "depth must be a positive integer")
			return
		}
		depth = n
	}

	book := h.sim.Book()
	resp := bookResponse{
		Bids:       book.TopBids(depth),
		Asks:       book.TopAsks(depth),
		SnapshotAt: time.Now().UTC(),
	}
	if mid, ok := book.CentralPrice(); ok {
		resp.CentralPrice = &mid
	}
	WriteJSON(w, http.StatusOK, resp)
}
