package numbers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ringflowhq/ringflow/internal/flow"
	"github.com/ringflowhq/ringflow/internal/telephony"
)

// RegisterRoutes mounts number endpoints on the given router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/numbers", listNumbersHandler(svc))
	r.Get("/api/numbers/search", searchHandler(svc))
	r.Post("/api/numbers", purchaseHandler(svc))
	r.Delete("/api/numbers/{id}", releaseHandler(svc))
}

func listNumbersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.store.ListNumbers(r.Context(), flow.UserID(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []PhoneNumber{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func searchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country := r.URL.Query().Get("country")
		areaCode := r.URL.Query().Get("area_code")

		result, err := svc.Search(r.Context(), country, areaCode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if result == nil {
			result = []telephony.AvailableNumber{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func purchaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PhoneNumber  string `json:"phone_number"`
			FriendlyName string `json:"friendly_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.PhoneNumber == "" {
			http.Error(w, "phone_number is required", http.StatusBadRequest)
			return
		}

		n, err := svc.Purchase(r.Context(), flow.UserID(r), req.PhoneNumber, req.FriendlyName)
		switch {
		case errors.Is(err, ErrPlanLimit):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		case errors.Is(err, ErrNotRecorded):
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, n)
	}
}

func releaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Release(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
