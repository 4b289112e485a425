// Package pipeline orchestrates one inbound mention event: reaction
// feedback, context fetch, AI generation, reply delivery, and cache update,
// with recovery at every step. A failure never escapes HandleMention.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"mentionbot/internal/domain"
	"mentionbot/internal/metrics"
)

const (
	workingEmoji = "hourglass"
	// apologyText is the best-effort notice sent when the pipeline fails
	// after acknowledging the mention.
	apologyText = "Oops! Something went wrong while processing your message. Please try again later."
)

// Pipeline processes mention events. Construct one per process and share it
// across events; it is safe for concurrent use.
type Pipeline struct {
	resolver     domain.CredentialResolver
	fallback     domain.MessagingClient // used when credential resolution fails outright
	store        domain.ConversationStore
	ai           domain.AIProvider
	logger       *slog.Logger
	platform     string
	historyLimit int

	mentions    *metrics.Counter
	failures    *metrics.Counter
	inflight    *metrics.Gauge
	genDuration *metrics.Histogram
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Resolver     domain.CredentialResolver
	Fallback     domain.MessagingClient
	Store        domain.ConversationStore
	AI           domain.AIProvider
	Logger       *slog.Logger
	Platform     string // e.g. "slack"
	HistoryLimit int    // prior turns passed to the provider
	Collector    *metrics.Collector
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Platform == "" {
		cfg.Platform = "slack"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 5
	}
	p := &Pipeline{
		resolver:     cfg.Resolver,
		fallback:     cfg.Fallback,
		store:        cfg.Store,
		ai:           cfg.AI,
		logger:       cfg.Logger,
		platform:     cfg.Platform,
		historyLimit: cfg.HistoryLimit,
	}
	if cfg.Collector != nil {
		p.mentions = cfg.Collector.Counter("mentionbot_mentions_total", "Mention events handled")
		p.failures = cfg.Collector.Counter("mentionbot_pipeline_failures_total", "Mention events that ended in the failure path")
		p.inflight = cfg.Collector.Gauge("mentionbot_events_inflight", "Mention events currently being processed")
		p.genDuration = cfg.Collector.Histogram("mentionbot_generation_seconds", "AI generation latency in seconds",
			[]float64{0.5, 1, 2, 4, 8})
	}
	return p
}

// eventEnvelope is the metadata blob passed to the provider alongside the
// message text.
type eventEnvelope struct {
	User string `json:"user"`
	Type string `json:"type"`
	TS   string `json:"ts"`
	Text string `json:"text"`
	Team string `json:"team"`
}

// HandleMention runs the full sequence for one event: resolve the team's
// client, add the working reaction, fetch history, generate, post the reply
// threaded to the source message, remove the reaction, and persist both
// turns. Generation happens at most once and is never retried.
func (p *Pipeline) HandleMention(ctx context.Context, ev domain.MentionEvent) {
	if p.mentions != nil {
		p.mentions.Inc()
	}
	if p.inflight != nil {
		p.inflight.Inc()
		defer p.inflight.Dec()
	}

	log := p.logger.With("team", ev.TeamID, "channel", ev.Channel, "ts", ev.Timestamp)
	log.Info("mention received", "user", ev.User, "content_len", len(ev.Text))

	client, err := p.resolver.Resolve(ctx, ev.TeamID)
	if err != nil {
		log.Error("credential resolution failed", "err", err)
		p.notifyFailure(ctx, p.fallback, ev, log)
		return
	}

	// Best-effort UX signal: a failed reaction never blocks the reply.
	if err := client.AddReaction(ctx, workingEmoji, ev.Channel, ev.Timestamp); err != nil {
		log.Warn("add reaction failed", "emoji", workingEmoji, "err", err)
	}

	history := p.store.LastMessages(ev.ConversationID(), p.historyLimit)

	envelope, err := json.Marshal(eventEnvelope{
		User: ev.User,
		Type: ev.Type,
		TS:   ev.Timestamp,
		Text: ev.Text,
		Team: ev.TeamID,
	})
	if err != nil {
		envelope = []byte("{}")
	}

	start := time.Now()
	reply := p.ai.GenerateReply(ctx, p.platform, ev.Text, history, string(envelope))
	if p.genDuration != nil {
		p.genDuration.Observe(time.Since(start).Seconds())
	}
	log.Info("reply generated", "provider", p.ai.Name(), "reply_len", len(reply))

	if err := client.PostMessage(ctx, ev.Channel, reply, ev.Timestamp); err != nil {
		log.Error("reply post failed", "err", err)
		p.notifyFailure(ctx, client, ev, log)
		return
	}

	if err := client.RemoveReaction(ctx, workingEmoji, ev.Channel, ev.Timestamp); err != nil {
		log.Warn("remove reaction failed", "emoji", workingEmoji, "err", err)
	}

	conv := ev.ConversationID()
	p.store.SaveMessage(conv, domain.Message{From: ev.User, Text: ev.Text})
	p.store.SaveMessage(conv, domain.Message{From: "bot", Text: reply})
}

// notifyFailure sends the threaded apology with whichever client is
// available, falling back to the default client. If every attempt fails the
// event is abandoned with a log line.
func (p *Pipeline) notifyFailure(ctx context.Context, client domain.MessagingClient, ev domain.MentionEvent, log *slog.Logger) {
	if p.failures != nil {
		p.failures.Inc()
	}
	if client == nil {
		client = p.fallback
	}
	err := client.PostMessage(ctx, ev.Channel, apologyText, ev.Timestamp)
	if err != nil && client != p.fallback && p.fallback != nil {
		err = p.fallback.PostMessage(ctx, ev.Channel, apologyText, ev.Timestamp)
	}
	if err != nil {
		log.Error("failure notice could not be delivered, abandoning event", "err", err)
	}
}
