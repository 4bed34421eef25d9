package statusd

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/fuzzing"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Source is the read-only campaign view the server reports on
type Source interface {
	Snapshot() fuzzing.Snapshot
	Findings() *checkpoint.Findings
}

type HTTPServer struct {
	mux    *http.ServeMux
	source Source
}

func NewHTTPServer(source Source) *HTTPServer {
	s := &HTTPServer{
		mux:    http.NewServeMux(),
		source: source,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/campaign", s.handleCampaign)
	s.mux.HandleFunc("/v1/findings", s.handleFindings)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

// NewServer wraps the handler in an http.Server with the usual timeouts
func NewServer(addr string, source Source) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHTTPServer(source).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleCampaign handles GET /v1/campaign
func (s *HTTPServer) handleCampaign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.source.Snapshot())
}

// findingJSON is one seed in the findings listing
type findingJSON struct {
	RoundID          int                     `json:"round_id"`
	Result           models.ResultKind       `json:"result"`
	Loss             *float64                `json:"loss"`
	MinDistance      *float64                `json:"min_distance"`
	PEgo             *float64                `json:"p_ego"`
	PNpc             *float64                `json:"p_npc"`
	VNpc             *float64                `json:"v_npc"`
	ActionCapability int                     `json:"action_cap"`
	ActionChain      []models.ScriptedAction `json:"action_chain"`
}

// handleFindings handles GET /v1/findings?kind=collision|other
func (s *HTTPServer) handleFindings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(checkpoint.FindingCollision)
	}
	kind, err := checkpoint.ParseFindingKind(kindParam)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seeds := s.source.Findings().Of(kind)
	items := make([]findingJSON, 0, len(seeds))
	for _, seed := range seeds {
		items = append(items, convertSeedToJSON(seed))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"count":    len(items),
		"findings": items,
	})
}

func convertSeedToJSON(seed *models.Seed) findingJSON {
	item := findingJSON{
		RoundID:          seed.RoundID,
		Result:           seed.Result(),
		PEgo:             seed.PEgo,
		PNpc:             seed.PNpc,
		VNpc:             seed.VNpc,
		ActionCapability: seed.ActionCapability,
		ActionChain:      seed.ActionChain,
	}
	if item.ActionChain == nil {
		item.ActionChain = []models.ScriptedAction{}
	}
	if seed.Outcome != nil {
		item.Loss = finite(seed.Outcome.Loss.Value())
		item.MinDistance = finite(seed.Outcome.MinDistance.Value)
	}
	return item
}

// finite maps infinities to JSON null
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
