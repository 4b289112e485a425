package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"

	"mentionbot/internal/domain"
	"mentionbot/internal/token"
)

// ExchangeFunc swaps an OAuth authorization code for an access response.
// Production uses slack.GetOAuthV2ResponseContext; tests inject a stub.
type ExchangeFunc func(ctx context.Context, code string) (*slack.OAuthV2Response, error)

// OAuthHandler is the install-flow callback endpoint: exchange the code,
// persist the team's credential, and bounce the user back to Slack.
type OAuthHandler struct {
	store    *token.Store
	exchange ExchangeFunc
	appID    string
	logger   *slog.Logger
}

// OAuthConfig configures an OAuthHandler. Exchange defaults to the real
// Slack token endpoint using the given client credentials.
type OAuthConfig struct {
	Store        *token.Store
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AppID        string
	Exchange     ExchangeFunc
	Logger       *slog.Logger
}

// NewOAuthHandler creates the callback endpoint.
func NewOAuthHandler(cfg OAuthConfig) *OAuthHandler {
	exchange := cfg.Exchange
	if exchange == nil {
		exchange = func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return slack.GetOAuthV2ResponseContext(ctx, http.DefaultClient,
				cfg.ClientID, cfg.ClientSecret, code, cfg.RedirectURI)
		}
	}
	return &OAuthHandler{
		store:    cfg.Store,
		exchange: exchange,
		appID:    cfg.AppID,
		logger:   cfg.Logger,
	}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code parameter"})
		return
	}

	resp, err := h.exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "oauth exchange failed"})
		return
	}

	rec := domain.TokenRecord{
		AccessToken: resp.AccessToken,
		TeamID:      resp.Team.ID,
		TeamName:    resp.Team.Name,
		BotUserID:   resp.BotUserID,
		AppID:       resp.AppID,
	}
	// A failed save means the install did not happen; surface it.
	if err := h.store.Save(rec); err != nil {
		h.logger.Error("token save failed", "team", rec.TeamID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not persist credentials"})
		return
	}

	h.logger.Info("app installed", "team", rec.TeamID, "team_name", rec.TeamName)

	if h.appID != "" {
		http.Redirect(w, r, "https://slack.com/app_redirect?app="+h.appID, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "App installed successfully"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
