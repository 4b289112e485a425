package cache

import (
	"fmt"
	"reflect"
	"testing"

	"mentionbot/internal/domain"
)

func msg(i int) domain.Message {
	return domain.Message{From: "user", Text: fmt.Sprintf("message %d", i)}
}

func TestSaveMessage_BoundsHistory(t *testing.T) {
	c := New(10, 5)
	for i := 0; i < 20; i++ {
		c.SaveMessage("conv", msg(i))
	}

	got := c.LastMessages("conv", 50)
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	// Oldest entries drop first: the survivors are the last five writes.
	for i, m := range got {
		want := fmt.Sprintf("message %d", 15+i)
		if m.Text != want {
			t.Errorf("message %d: got %q, want %q", i, m.Text, want)
		}
	}
}

func TestLastMessages_TrailingWindow(t *testing.T) {
	c := New(10, 50)
	for i := 0; i < 8; i++ {
		c.SaveMessage("conv", msg(i))
	}

	tests := []struct {
		limit int
		want  int
		first string
	}{
		{limit: 3, want: 3, first: "message 5"},
		{limit: 8, want: 8, first: "message 0"},
		{limit: 100, want: 8, first: "message 0"},
		{limit: 0, want: 5, first: "message 3"}, // default limit
	}
	for _, tt := range tests {
		got := c.LastMessages("conv", tt.limit)
		if len(got) != tt.want {
			t.Errorf("limit %d: got %d messages, want %d", tt.limit, len(got), tt.want)
			continue
		}
		if got[0].Text != tt.first {
			t.Errorf("limit %d: first message %q, want %q", tt.limit, got[0].Text, tt.first)
		}
	}
}

func TestLastMessages_UnknownConversation(t *testing.T) {
	c := New(10, 50)
	if got := c.LastMessages("nope", 5); len(got) != 0 {
		t.Errorf("expected empty history, got %d messages", len(got))
	}
}

func TestSaveMessage_EvictsOldestConversation(t *testing.T) {
	c := New(3, 50)
	c.SaveMessage("a", msg(1))
	c.SaveMessage("b", msg(2))
	c.SaveMessage("c", msg(3))
	c.SaveMessage("d", msg(4)) // evicts "a"

	if c.Len() != 3 {
		t.Fatalf("expected 3 conversations, got %d", c.Len())
	}
	if got := c.LastMessages("a", 5); len(got) != 0 {
		t.Errorf("conversation a should have been evicted, got %d messages", len(got))
	}
	if got := c.LastMessages("d", 5); len(got) != 1 {
		t.Errorf("conversation d should be present, got %d messages", len(got))
	}
}

func TestSaveMessage_WriteRefreshesRecency(t *testing.T) {
	c := New(3, 50)
	c.SaveMessage("a", msg(1))
	c.SaveMessage("b", msg(2))
	c.SaveMessage("c", msg(3))

	// Writing to "a" moves it to the most-recently-written position, so the
	// next eviction takes "b".
	c.SaveMessage("a", msg(4))
	c.SaveMessage("d", msg(5))

	if got := c.LastMessages("b", 5); len(got) != 0 {
		t.Errorf("conversation b should have been evicted, got %d messages", len(got))
	}
	if got := c.LastMessages("a", 5); len(got) != 2 {
		t.Errorf("conversation a should survive with 2 messages, got %d", len(got))
	}
}

func TestLastMessages_ReadDoesNotRefreshRecency(t *testing.T) {
	c := New(3, 50)
	c.SaveMessage("a", msg(1))
	c.SaveMessage("b", msg(2))
	c.SaveMessage("c", msg(3))

	// Heavy read traffic on "a" must not save it from eviction.
	for i := 0; i < 10; i++ {
		c.LastMessages("a", 5)
	}
	c.SaveMessage("d", msg(4))

	if got := c.LastMessages("a", 5); len(got) != 0 {
		t.Errorf("read-only conversation a should still be evicted, got %d messages", len(got))
	}
}

func TestLastMessages_ReturnsCopy(t *testing.T) {
	c := New(10, 50)
	c.SaveMessage("conv", msg(0))
	got := c.LastMessages("conv", 5)
	got[0].Text = "mutated"

	again := c.LastMessages("conv", 5)
	if !reflect.DeepEqual(again[0], msg(0)) {
		t.Errorf("cache contents were mutated through a returned slice: %+v", again[0])
	}
}
