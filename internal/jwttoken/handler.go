package jwttoken

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"custodia/pkg/domain"
)

// DevMintHandler mints a token for an arbitrary principal. Registered only
// in dev mode; production deployments receive tokens from their identity
// provider.
func DevMintHandler(svc *Service, logger *slog.Logger) http.HandlerFunc {
	type request struct {
		Principal string `json:"principal"`
	}
	type response struct {
		Principal   string `json:"principal"`
		AccessToken string `json:"access_token"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		principal := domain.NewPrincipal()
		if req.Principal != "" {
			parsed, err := domain.ParsePrincipal(req.Principal)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"bad_request","message":"principal must be a uuid"}`))
				return
			}
			principal = parsed
		}

		token, err := svc.GenerateToken(principal, time.Hour)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to mint dev token", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response{
			Principal:   principal.String(),
			AccessToken: token,
		})
	}
}
