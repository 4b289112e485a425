package domain

// Message is one turn of a conversation, either from a user or from the bot.
// Messages are immutable once created; ordering is insertion order.
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// MentionEvent is an app_mention delivered by Slack's Events API, reduced to
// the fields the pipeline needs.
type MentionEvent struct {
	TeamID          string
	Channel         string
	User            string
	Text            string
	Timestamp       string // ts of the mention message
	ThreadTimestamp string // ts of the thread root, empty if not in a thread
	Type            string // raw event type, e.g. "app_mention"
}

// ConversationID returns the cache key for the event's conversation: the
// thread root ts, or the event's own ts when the mention starts a thread.
func (e MentionEvent) ConversationID() string {
	if e.ThreadTimestamp != "" {
		return e.ThreadTimestamp
	}
	return e.Timestamp
}
