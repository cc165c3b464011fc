package editor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ringflowhq/ringflow/internal/flow"
)

// State is the editor snapshot returned to clients after every mutation.
type State struct {
	FlowID         string       `json:"flow_id"`
	Voice          string       `json:"voice"`
	Blocks         []flow.Block `json:"blocks"`
	ConnectingFrom string       `json:"connecting_from,omitempty"`
	Selected       string       `json:"selected,omitempty"`
}

func snapshot(s *Session) State {
	from, _ := s.ConnectingFrom()
	return State{
		FlowID:         s.FlowID,
		Voice:          s.Voice,
		Blocks:         s.Blocks(),
		ConnectingFrom: from,
		Selected:       s.Selected(),
	}
}

// RegisterRoutes mounts the editor endpoints on the given router.
func RegisterRoutes(r chi.Router, mgr *Manager, flows *flow.Store) {
	r.Post("/api/editor/{flowID}/open", openHandler(mgr, flows))
	r.Get("/api/editor/{flowID}", stateHandler(mgr))
	r.Delete("/api/editor/{flowID}", closeHandler(mgr))
	r.Post("/api/editor/{flowID}/blocks", addBlockHandler(mgr))
	r.Patch("/api/editor/{flowID}/blocks/{blockID}", updateBlockHandler(mgr))
	r.Post("/api/editor/{flowID}/blocks/{blockID}/move", moveBlockHandler(mgr))
	r.Delete("/api/editor/{flowID}/blocks/{blockID}", deleteBlockHandler(mgr))
	r.Post("/api/editor/{flowID}/connect", edgeHandler(mgr, true))
	r.Post("/api/editor/{flowID}/disconnect", edgeHandler(mgr, false))
	r.Post("/api/editor/{flowID}/connecting", connectingHandler(mgr))
	r.Post("/api/editor/{flowID}/click", clickHandler(mgr))
	r.Post("/api/editor/{flowID}/reset", resetHandler(mgr))
	r.Post("/api/editor/{flowID}/save", saveHandler(mgr, flows))
	r.Get("/api/editor/{flowID}/ws", wsHandler(mgr))
}

// session fetches an open session or writes a 404.
func session(w http.ResponseWriter, r *http.Request, mgr *Manager) *Session {
	s := mgr.Get(chi.URLParam(r, "flowID"))
	if s == nil {
		http.Error(w, "editor session not open", http.StatusNotFound)
	}
	return s
}

func openHandler(mgr *Manager, flows *flow.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := chi.URLParam(r, "flowID")
		s := mgr.Open(flowID)

		if name := r.URL.Query().Get("preset"); name != "" {
			p := flow.PresetByName(name)
			if p == nil {
				http.Error(w, "unknown preset", http.StatusBadRequest)
				return
			}
			s.Load("", p.Blocks)
			writeJSON(w, http.StatusOK, snapshot(s))
			return
		}

		f, err := flows.GetFlow(r.Context(), flowID)
		if err != nil {
			// A flow that is not saved yet opens as an empty canvas.
			s.Reset()
			writeJSON(w, http.StatusOK, snapshot(s))
			return
		}
		s.Load(f.Config.Voice, f.Config.Blocks)
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func stateHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s := session(w, r, mgr); s != nil {
			writeJSON(w, http.StatusOK, snapshot(s))
		}
	}
}

func closeHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr.Close(chi.URLParam(r, "flowID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func addBlockHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var req struct {
			Type     flow.BlockType `json:"type"`
			Position *flow.Position `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if _, err := s.AddBlock(req.Type, req.Position); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func updateBlockHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var patch json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.UpdateBlock(chi.URLParam(r, "blockID"), patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func moveBlockHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var pos flow.Position
		if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		s.MoveBlock(chi.URLParam(r, "blockID"), pos)
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func deleteBlockHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		s.DeleteBlock(chi.URLParam(r, "blockID"))
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func edgeHandler(mgr *Manager, connect bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var req struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if connect {
			s.ConnectBlocks(req.From, req.To)
		} else {
			s.DisconnectBlocks(req.From, req.To)
		}
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func connectingHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var req struct {
			BlockID string `json:"block_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		s.SetConnectingFrom(req.BlockID)
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func clickHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		var req struct {
			BlockID string `json:"block_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		s.ClickBlock(req.BlockID)
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func resetHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		s.Reset()
		writeJSON(w, http.StatusOK, snapshot(s))
	}
}

func saveHandler(mgr *Manager, flows *flow.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, mgr)
		if s == nil {
			return
		}
		blocks := s.Blocks()
		if len(blocks) == 0 {
			http.Error(w, "flow has no blocks", http.StatusBadRequest)
			return
		}

		f, err := flows.GetFlow(r.Context(), s.FlowID)
		if err != nil {
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		f.Config = flow.Serialize(s.Voice, blocks)
		if err := flows.UpdateFlow(r.Context(), f); err != nil {
			if errors.Is(err, flow.ErrNumberInUse) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
