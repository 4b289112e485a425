package channel

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"

	"mentionbot/internal/token"
)

func newTokenStore(t *testing.T) *token.Store {
	t.Helper()
	key := make([]byte, token.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	s, err := token.NewStore(token.StoreConfig{Dir: t.TempDir(), Key: key, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func oauthResponse(teamID string) *slack.OAuthV2Response {
	resp := &slack.OAuthV2Response{
		AccessToken: "xoxb-installed",
		BotUserID:   "U0BOT",
		AppID:       "A0APP",
	}
	resp.Team.ID = teamID
	resp.Team.Name = "Installed Team"
	return resp
}

func TestOAuthHandler_InstallSavesToken(t *testing.T) {
	store := newTokenStore(t)
	h := NewOAuthHandler(OAuthConfig{
		Store:  store,
		Logger: testLogger(),
		Exchange: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			if code != "auth-code-1" {
				t.Errorf("unexpected code %q", code)
			}
			return oauthResponse("T0AAA"), nil
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slack/oauth?code=auth-code-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, ok := store.Load("T0AAA")
	if !ok {
		t.Fatal("token was not saved")
	}
	if got.AccessToken != "xoxb-installed" || got.TeamName != "Installed Team" || got.BotUserID != "U0BOT" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestOAuthHandler_RedirectsWhenAppIDSet(t *testing.T) {
	h := NewOAuthHandler(OAuthConfig{
		Store:  newTokenStore(t),
		AppID:  "A0XYZ",
		Logger: testLogger(),
		Exchange: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return oauthResponse("T0BBB"), nil
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slack/oauth?code=c", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://slack.com/app_redirect?app=A0XYZ" {
		t.Errorf("unexpected redirect target %q", loc)
	}
}

func TestOAuthHandler_MissingCode(t *testing.T) {
	h := NewOAuthHandler(OAuthConfig{Store: newTokenStore(t), Logger: testLogger(),
		Exchange: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			t.Fatal("exchange must not run without a code")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slack/oauth", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestOAuthHandler_ExchangeFailure(t *testing.T) {
	h := NewOAuthHandler(OAuthConfig{Store: newTokenStore(t), Logger: testLogger(),
		Exchange: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return nil, errors.New("invalid_code")
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slack/oauth?code=bad", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestOAuthHandler_SaveFailureIsFatal(t *testing.T) {
	// A team id that escapes into a nonexistent directory forces the write
	// to fail, exercising the fatal-save path.
	h := NewOAuthHandler(OAuthConfig{Store: newTokenStore(t), Logger: testLogger(),
		Exchange: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return oauthResponse("missing-subdir/T0CCC"), nil
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slack/oauth?code=c", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "persist") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
