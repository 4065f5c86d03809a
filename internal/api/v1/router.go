package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"abbot-web/internal/landing"
	"abbot-web/internal/logging"
	"abbot-web/internal/sessions"
	"abbot-web/internal/ui"
)

const maxRequestBody = 64 << 10

// RuntimeInfo describes the pieces of server configuration that the API exposes.
type RuntimeInfo struct {
	Name           string `json:"name"`
	Addr           string `json:"addr"`
	Port           string `json:"port"`
	ReadTimeout    string `json:"readTimeout"`
	InviteEndpoint string `json:"inviteEndpoint"`
}

// Options configures the HTTP router.
type Options struct {
	Logger      logging.Logger
	Sessions    *sessions.Store
	UI          *ui.Handler
	RuntimeInfo RuntimeInfo
}

// NewRouter constructs the HTTP router for the landing page and its JSON API.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()
	logger := opts.Logger

	if opts.UI != nil {
		opts.UI.Register(mux)
	} else {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("UI assets not configured"))
		})
	}

	if opts.Sessions != nil {
		mux.Handle("/api/state", handleState(opts.Sessions))
		mux.Handle("/api/invite", handleInvite(opts.Sessions, logger))
	}

	mux.HandleFunc("/api/server/config", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, opts.RuntimeInfo)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return logging.WithHTTPLogging(mux, logger)
}

func respondJSON(w http.ResponseWriter, payload any) {
	respondJSONStatus(w, http.StatusOK, payload)
}

func respondJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StateResponse is the JSON view of a visitor's page state.
type StateResponse struct {
	Platform             string `json:"platform"`
	Mode                 string `json:"mode"`
	ChannelMode          bool   `json:"channelMode"`
	Panel                string `json:"panel"`
	QuickAddSelected     bool   `json:"quickAddSelected"`
	ManualAddSelected    bool   `json:"manualAddSelected"`
	Identifier           string `json:"identifier"`
	IdentifierLooksValid bool   `json:"identifierLooksValid"`
	Loading              bool   `json:"loading"`
}

func newStateResponse(s landing.State) StateResponse {
	platform := string(s.Platform)
	if s.Platform == landing.PlatformNone {
		platform = "none"
	}
	return StateResponse{
		Platform:             platform,
		Mode:                 s.Mode.String(),
		ChannelMode:          s.ChannelMode(),
		Panel:                s.Panel.String(),
		QuickAddSelected:     s.QuickAddSelected(),
		ManualAddSelected:    s.ManualAddSelected(),
		Identifier:           s.Identifier,
		IdentifierLooksValid: landing.LooksLikeChannelID(s.Identifier),
		Loading:              s.Loading,
	}
}

func handleState(store *sessions.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sess := store.Load(w, r)
		respondJSON(w, newStateResponse(sess.Controller.Snapshot()))
	})
}

// InviteRequest is the body accepted by POST /api/invite. Platform is
// optional; when set it is selected before submitting.
type InviteRequest struct {
	ChannelID string `json:"channelId"`
	Platform  string `json:"platform,omitempty"`
}

// InviteResponse reports the result of a submission.
type InviteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func handleInvite(store *sessions.Store, logger logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req InviteRequest
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondJSONStatus(w, http.StatusBadRequest, InviteResponse{Error: "invalid JSON body"})
			return
		}

		var platform landing.Platform
		if strings.TrimSpace(req.Platform) != "" {
			parsed, err := landing.ParsePlatform(req.Platform)
			if err != nil {
				respondJSONStatus(w, http.StatusBadRequest, InviteResponse{Error: err.Error()})
				return
			}
			platform = parsed
		}

		sess := store.Load(w, r)
		// The caller gets the message in the response, so no flash is queued.
		out, err := sess.Controller.SubmitWith(context.WithoutCancel(r.Context()), landing.Submission{
			Platform:   platform,
			Identifier: req.ChannelID,
			Silent:     true,
		})
		switch {
		case errors.Is(err, landing.ErrSubmitInFlight):
			respondJSONStatus(w, http.StatusConflict, InviteResponse{Error: err.Error()})
		case errors.Is(err, landing.ErrNoDispatcher):
			respondJSONStatus(w, http.StatusServiceUnavailable, InviteResponse{Error: err.Error()})
		case err != nil:
			if logger != nil {
				logger.Printf("api invite failed: %v", err)
			}
			respondJSONStatus(w, http.StatusBadGateway, InviteResponse{Message: out.Message, Error: landing.ErrDispatch.Error()})
		default:
			respondJSON(w, InviteResponse{Success: out.Success, Message: out.Message})
		}
	})
}
