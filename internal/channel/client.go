// Package channel is the Slack transport: the Web API client adapter,
// per-team credential resolution, and the HTTP surface (events webhook,
// OAuth callback, health, metrics).
package channel

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Client adapts the Slack Web API to domain.MessagingClient.
type Client struct {
	api *slack.Client
}

// NewClient creates a client bound to one bot token.
func NewClient(botToken string) *Client {
	return &Client{api: slack.New(botToken)}
}

// PostMessage posts text to a channel. A non-empty threadTS threads the
// message under that timestamp.
func (c *Client) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("slack post to %s: %w", channelID, err)
	}
	return nil
}

// AddReaction adds an emoji reaction to the message at timestamp.
func (c *Client) AddReaction(ctx context.Context, emoji, channelID, timestamp string) error {
	if err := c.api.AddReactionContext(ctx, emoji, slack.NewRefToMessage(channelID, timestamp)); err != nil {
		return fmt.Errorf("slack add reaction :%s:: %w", emoji, err)
	}
	return nil
}

// RemoveReaction removes an emoji reaction from the message at timestamp.
func (c *Client) RemoveReaction(ctx context.Context, emoji, channelID, timestamp string) error {
	if err := c.api.RemoveReactionContext(ctx, emoji, slack.NewRefToMessage(channelID, timestamp)); err != nil {
		return fmt.Errorf("slack remove reaction :%s:: %w", emoji, err)
	}
	return nil
}
