package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/povring/internal/revolution"
)

// Report is what /health returns and /stats streams.
type Report struct {
	UptimeS             float64  `json:"uptime_s"`
	Armed               bool     `json:"armed"`
	Revolutions         uint64   `json:"revolutions"`
	PeriodMicros        float64  `json:"period_us"`
	RPM                 float64  `json:"rpm"`
	PixelQuantumMicros  float64  `json:"pixel_quantum_us"`
	SinceTriggerMicros  float64  `json:"since_trigger_us"`
	CurrentAngularPixel int      `json:"current_pixel"`
	StartAngularPixel   int      `json:"start_pixel"`
	VerticalBoardOffset int      `json:"board_offset"`
	Rotating            bool     `json:"rotating"`
	Waterfall           bool     `json:"waterfall"`
	Driver              string   `json:"driver"`
	Counters            Counters `json:"counters"`
}

// Hub fans reports and diagnostics out to websocket clients.
type Hub struct {
	state  *revolution.State
	stats  *Stats
	driver string
	stall  time.Duration
	start  time.Time

	mu          sync.Mutex
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	stalled     bool
}

// NewHub reports on state and stats. A sensor silent for longer than stall
// raises SENSOR.STALL.
func NewHub(state *revolution.State, stats *Stats, driver string, stall time.Duration) *Hub {
	return &Hub{
		state:       state,
		stats:       stats,
		driver:      driver,
		stall:       stall,
		start:       time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// Report builds a report from the live state.
func (h *Hub) Report() Report {
	snap := h.state.Load()
	opts := h.state.Options()
	r := Report{
		UptimeS:             time.Since(h.start).Seconds(),
		Armed:               snap.Armed,
		Revolutions:         snap.Generation,
		PeriodMicros:        snap.PeriodMicros,
		PixelQuantumMicros:  snap.PixelQuantumMicros,
		SinceTriggerMicros:  h.state.Elapsed(snap),
		CurrentAngularPixel: snap.CurrentAngularPixel,
		StartAngularPixel:   snap.StartAngularPixel,
		VerticalBoardOffset: snap.VerticalBoardOffset,
		Rotating:            opts.Rotating,
		Waterfall:           opts.Waterfall,
		Driver:              h.driver,
		Counters:            h.stats.Snapshot(),
	}
	if snap.PeriodMicros > 0 {
		r.RPM = 60e6 / snap.PeriodMicros
	}
	return r
}

// Run broadcasts a report every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-tick.C:
			r := h.Report()
			h.check(r)
			h.broadcast(r)
		}
	}
}

// check raises SENSOR.STALL once per outage and SENSOR.RESUMED after it.
func (h *Hub) check(r Report) {
	if h.stall <= 0 || !r.Armed {
		return
	}
	silent := time.Duration(r.SinceTriggerMicros) * time.Microsecond
	h.mu.Lock()
	was := h.stalled
	h.stalled = silent > h.stall
	now := h.stalled
	h.mu.Unlock()

	switch {
	case now && !was:
		log.Warn().Dur("silent", silent).Msg("sensor stalled; frames paused until the next trigger")
		h.Push(Diagnostic{
			Severity: Warn, Code: "SENSOR.STALL", Summary: "No revolution trigger",
			LikelyCauses:   []string{"motor stopped", "magnet out of sensor range", "sensor wiring"},
			SuggestedFixes: []string{"check motor supply", "check sensor pin and pull-up"},
			Evidence:       map[string]any{"silent_ms": silent.Milliseconds(), "revolutions": r.Revolutions},
		})
	case !now && was:
		log.Info().Msg("sensor resumed")
		h.Push(Diagnostic{Severity: Info, Code: "SENSOR.RESUMED", Summary: "Revolution triggers resumed"})
	}
}

// HandleHealth serves the current report as JSON.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.Report())
}

// HandleStatsWS subscribes the client to periodic reports.
func (h *Hub) HandleStatsWS(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, h.clients)
}

// HandleDiagWS subscribes the client to diagnostic events.
func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, h.diagClients)
}

func (h *Hub) subscribe(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	set[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) broadcast(r Report) {
	b, _ := json.Marshal(r)
	h.send(h.clients, b)
}

// Push sends d to every /diag subscriber.
func (h *Hub) Push(d Diagnostic) {
	b, _ := json.Marshal(d)
	h.send(h.diagClients, b)
}

func (h *Hub) send(set map[*websocket.Conn]bool, b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range set {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write report")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
	}
	for c := range h.diagClients {
		c.Close()
	}
}
