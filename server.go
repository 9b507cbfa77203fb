package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hubbridge/config"
	"hubbridge/hubspace"
	"hubbridge/hubspace/auth"
	"hubbridge/session"
)

const appVersion = "0.1.0"

// Bridge wires the identity-provider client, the device-cloud client and the
// session store behind the HTTP routes the clients call.
type Bridge struct {
	auth    *auth.Client
	devices *hubspace.Client
	store   *session.Store
	started time.Time
}

func NewBridge(cfg config.Config) *Bridge {
	return &Bridge{
		auth: auth.NewClient(auth.Opts{
			AuthBaseURL: "https://" + cfg.AuthHost + "/auth/realms/" + cfg.AuthRealm,
			APIBaseURL:  "https://" + cfg.ApiHost,
			ClientID:    cfg.ClientID,
			RedirectURI: cfg.RedirectURI,
			UserAgent:   cfg.UserAgent,
		}),
		devices: hubspace.NewClient(hubspace.ClientOpts{
			BaseURL:   "https://" + cfg.ApiHost,
			DataHost:  cfg.DataHost,
			UserAgent: cfg.UserAgent,
		}),
		store:   session.NewStore(),
		started: time.Now(),
	}
}

func (b *Bridge) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Post("/login", b.handleLogin)
	r.Get("/devices", b.handleDevices)
	r.Get("/state/{id}", b.handleState)
	r.Post("/command/{id}", b.handleCommand)
	r.Get("/health", b.handleHealth)

	return r
}

func (b *Bridge) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password := loginCredentials(r)
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	log.Info().Str("username", username).Msg("starting login")

	tok, err := b.auth.Login(r.Context(), username, password)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("login failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sessionID := b.store.Create(session.NewRecord(tok))
	log.Info().Str("username", username).Str("sessionId", sessionID).Msg("login success")

	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
		"accountId": tok.AccountID,
	})
}

// loginCredentials reads username/password from a JSON or URL-encoded body,
// for compatibility with the various clients the bridge has seen.
func loginCredentials(r *http.Request) (username, password string) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return "", ""
		}
		return r.PostForm.Get("username"), r.PostForm.Get("password")
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", ""
	}
	return body.Username, body.Password
}

func (b *Bridge) handleDevices(w http.ResponseWriter, r *http.Request) {
	rec, ok := b.session(w, r)
	if !ok {
		return
	}

	token, err := rec.EnsureValid(r.Context(), b.auth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	devices, err := b.devices.ListMetadevices(r.Context(), token, rec.AccountID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("accountId", rec.AccountID()).Int("count", len(devices)).Msg("listed devices")
	writeJSON(w, http.StatusOK, devices)
}

func (b *Bridge) handleState(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	rec, ok := b.session(w, r)
	if !ok {
		return
	}

	token, err := rec.EnsureValid(r.Context(), b.auth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	state, err := b.devices.GetState(r.Context(), token, rec.AccountID(), deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(state)
}

func (b *Bridge) handleCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	// The values shape is validated before the session is even looked up;
	// a malformed command must not count as session activity.
	var body struct {
		Values json.RawMessage `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, hubspace.ErrInvalidCommandPayload.Error())
		return
	}
	// json.Unmarshal accepts "null" into a slice, so a nil check alone
	// would let {"values":null} through.
	var values *[]any
	if json.Unmarshal(body.Values, &values) != nil || values == nil {
		writeError(w, http.StatusBadRequest, hubspace.ErrInvalidCommandPayload.Error())
		return
	}

	rec, ok := b.session(w, r)
	if !ok {
		return
	}

	token, err := rec.EnsureValid(r.Context(), b.auth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := b.devices.SendCommand(r.Context(), token, rec.AccountID(), deviceID, *values); err != nil {
		var ue *hubspace.UpstreamError
		if errors.As(err, &ue) {
			// Surface the device cloud's verdict verbatim.
			writeError(w, ue.Status, ue.Body)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("deviceId", deviceID).Int("values", len(*values)).Msg("command sent")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(b.started).Seconds(),
		"sessions": b.store.Len(),
		"version":  appVersion,
	})
}

// session resolves the session query parameter against the store, answering
// 401 on a miss. A missing session is the normal re-login signal, not an
// exceptional condition.
func (b *Bridge) session(w http.ResponseWriter, r *http.Request) (*session.Record, bool) {
	rec, ok := b.store.Get(r.URL.Query().Get("session"))
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
