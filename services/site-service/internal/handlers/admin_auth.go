package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/auth"
	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/google/uuid"
)

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(v *auth.Verifier, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.Configured() {
				httpx.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured")
				return
			}
			token := httpx.BearerToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := v.Verify(r.Context(), token)
			if errors.Is(err, auth.ErrForbidden) {
				logger.Warn("admin access denied", "path", r.URL.Path)
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// LoginConfig picks the login mode: a hosted auth provider when ProviderURL
// is set, otherwise the single local admin account.
type LoginConfig struct {
	ProviderURL string
	ProviderKey string

	AdminEmail        string
	AdminPasswordHash string
	Secret            string
	TTL               time.Duration
}

type LoginHandler struct {
	cfg    LoginConfig
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewLoginHandler(cfg LoginConfig, client *http.Client, logger *slog.Logger) *LoginHandler {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &LoginHandler{cfg: cfg, http: client, logger: logger, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	errs := fieldErrors{}
	errs.email("email", req.Email)
	if errs.required("password", req.Password) {
		errs.minLen("password", req.Password, 6)
	}
	if !errs.empty() {
		httpx.WriteValidation(w, errs)
		return
	}

	if h.cfg.ProviderURL != "" {
		h.loginViaProvider(w, r, req)
		return
	}
	h.loginLocal(w, req)
}

func (h *LoginHandler) loginLocal(w http.ResponseWriter, req loginRequest) {
	if h.cfg.AdminEmail == "" || h.cfg.AdminPasswordHash == "" || h.cfg.Secret == "" {
		httpx.WriteError(w, http.StatusServiceUnavailable, "admin login not configured")
		return
	}
	if !strings.EqualFold(req.Email, h.cfg.AdminEmail) || auth.VerifyPassword(h.cfg.AdminPasswordHash, req.Password) != nil {
		h.logger.Warn("admin login rejected", "email", req.Email)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	now := h.now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(h.cfg.AdminEmail))).String(),
		Email: h.cfg.AdminEmail,
		Role:  "admin",
		Iat:   now.Unix(),
		Exp:   now.Add(h.cfg.TTL).Unix(),
	}, h.cfg.Secret)
	if err != nil {
		h.logger.Error("sign admin token", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.cfg.TTL / time.Second),
	})
}

// loginViaProvider runs the password grant against the hosted auth
// provider and relays the issued access token.
func (h *LoginHandler) loginViaProvider(w http.ResponseWriter, r *http.Request, req loginRequest) {
	raw, _ := json.Marshal(req)
	preq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.ProviderURL, bytes.NewReader(raw))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	preq.Header.Set("Content-Type", "application/json")
	if h.cfg.ProviderKey != "" {
		preq.Header.Set("apikey", h.cfg.ProviderKey)
	}
	resp, err := h.http.Do(preq)
	if err != nil {
		h.logger.Error("auth provider unreachable", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "auth provider unavailable")
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 500 {
		h.logger.Error("auth provider error", "status", resp.StatusCode)
		httpx.WriteError(w, http.StatusBadGateway, "auth provider unavailable")
		return
	}
	var out loginResponse
	if resp.StatusCode >= 300 || json.Unmarshal(body, &out) != nil || out.AccessToken == "" {
		h.logger.Warn("admin login rejected by provider", "email", req.Email, "status", resp.StatusCode)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if out.TokenType == "" {
		out.TokenType = "bearer"
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Me echoes the verified claims of the caller.
func Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"sub":   claims.Sub,
		"email": claims.Email,
		"role":  claims.Role,
	})
}
