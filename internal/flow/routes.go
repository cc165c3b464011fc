package flow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts flow endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/flows", listFlowsHandler(store))
	r.Get("/api/flows/{id}", getFlowHandler(store))
	r.Post("/api/flows", createFlowHandler(store))
	r.Put("/api/flows/{id}", updateFlowHandler(store))
	r.Delete("/api/flows/{id}", deleteFlowHandler(store))
	r.Post("/api/flows/{id}/activate", setActiveHandler(store, true))
	r.Post("/api/flows/{id}/deactivate", setActiveHandler(store, false))
	r.Get("/api/flow-presets", listPresetsHandler())
}

// UserID extracts the authenticated user from the request. Identity is
// owned by the external auth provider; the gateway forwards it in a
// header.
func UserID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

func listFlowsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := store.ListFlows(r.Context(), UserID(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Flow{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getFlowHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f, err := store.GetFlow(r.Context(), id)
		if err != nil {
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

// validateFlow applies the save-time rules: a name, a number binding and
// at least one block.
func validateFlow(f *Flow) string {
	if f.FlowName == "" {
		return "flow_name is required"
	}
	if f.NumberID == "" {
		return "number_id is required"
	}
	if len(f.Config.Blocks) == 0 {
		return "flow has no blocks"
	}
	return ""
}

func createFlowHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f Flow
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := validateFlow(&f); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		f.UserID = UserID(r)
		f.Config = Serialize(f.Config.Voice, f.Config.Blocks)
		if err := store.CreateFlow(r.Context(), &f); err != nil {
			if errors.Is(err, ErrNumberInUse) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func updateFlowHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var f Flow
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		f.ID = id
		if msg := validateFlow(&f); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		f.Config = Serialize(f.Config.Voice, f.Config.Blocks)
		if err := store.UpdateFlow(r.Context(), &f); err != nil {
			if errors.Is(err, ErrNumberInUse) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func deleteFlowHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeleteFlow(r.Context(), id); err != nil {
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setActiveHandler(store *Store, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.SetActive(r.Context(), id, active); err != nil {
			if errors.Is(err, ErrNumberInUse) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPresetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Presets())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
