// Package provider implements the pluggable reply-generation backends.
//
// Every backend honors the same contract: GenerateReply applies an internal
// deadline and never fails. Timeouts and backend errors are mapped to fixed
// fallback strings so the event pipeline always has text to send.
package provider

import (
	"fmt"
	"strings"
	"time"

	"mentionbot/internal/domain"
)

// FallbackReply is returned when a backend errors out.
const FallbackReply = "Sorry! We couldn't fetch a response. Please try again."

// defaultGenerateTimeout bounds one generation call.
const defaultGenerateTimeout = 4 * time.Second

// timeoutReply is returned when a backend misses its deadline.
func timeoutReply(name string) string {
	return fmt.Sprintf("Sorry, the %s AI service did not respond in time. Please try again later.", name)
}

// BuildPrompt renders the single prompt sent to every backend.
func BuildPrompt(botName, platform, message string, history []domain.Message, additionalData string) string {
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.From)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
	}

	return fmt.Sprintf(`You are %s, a helpful assistant on the %s platform.

Current conversation:
%s
User: %s
Additional data: %s

Your response:`, botName, platform, sb.String(), message, additionalData)
}
