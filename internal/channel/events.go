package channel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"mentionbot/internal/domain"
)

// MentionHandler consumes parsed mention events. *pipeline.Pipeline
// satisfies it.
type MentionHandler interface {
	HandleMention(ctx context.Context, ev domain.MentionEvent)
}

// EventsHandler is the Events API webhook endpoint. It verifies the request
// signature, answers URL-verification handshakes synchronously, and hands
// app_mention events to the pipeline asynchronously so Slack gets its 200
// within the delivery deadline.
type EventsHandler struct {
	signingSecret string
	handler       MentionHandler
	logger        *slog.Logger
}

// NewEventsHandler creates the webhook endpoint.
func NewEventsHandler(signingSecret string, handler MentionHandler, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		signingSecret: signingSecret,
		handler:       handler,
		logger:        logger,
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	verifier.Write(body)
	if err := verifier.Ensure(); err != nil {
		h.logger.Warn("event with bad signature rejected", "err", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Error("event parse failed", "err", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"challenge": challenge.Challenge})

	case slackevents.CallbackEvent:
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			ev := domain.MentionEvent{
				TeamID:          event.TeamID,
				Channel:         mention.Channel,
				User:            mention.User,
				Text:            mention.Text,
				Timestamp:       mention.TimeStamp,
				ThreadTimestamp: mention.ThreadTimeStamp,
				Type:            mention.Type,
			}
			// Ack first, process after: Slack redelivers on slow responses,
			// and the pipeline accepts possible redelivery (no dedup).
			go h.handler.HandleMention(context.Background(), ev)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}
