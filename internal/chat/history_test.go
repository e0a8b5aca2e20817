package chat

import (
	"strings"
	"testing"

	"github.com/voxgest/voxgest/pkg/provider/llm"
)

// TestHistory_Order checks that turns come back oldest first.
func TestHistory_Order(t *testing.T) {
	h := NewHistory(0)
	h.AddUser("one")
	h.AddAssistant("two")
	h.AddUser("three")

	w := h.Window()
	if len(w) != 3 {
		t.Fatalf("window len = %d, want 3", len(w))
	}
	if w[0].Content != "one" || w[1].Content != "two" || w[2].Content != "three" {
		t.Errorf("unexpected order: %+v", w)
	}
	if w[0].Role != llm.RoleUser || w[1].Role != llm.RoleAssistant {
		t.Errorf("unexpected roles: %+v", w)
	}
}

// TestHistory_TrimsOldest checks that the budget drops old turns first.
func TestHistory_TrimsOldest(t *testing.T) {
	// ~100 tokens budget; each message is ~54 tokens.
	h := NewHistory(100)
	long := strings.Repeat("word ", 40)

	h.AddUser("first: " + long)
	h.AddAssistant("second: " + long)
	h.AddUser("third: " + long)

	w := h.Window()
	if len(w) == 3 {
		t.Fatal("expected trimming, all 3 messages kept")
	}
	last := w[len(w)-1]
	if !strings.HasPrefix(last.Content, "third:") {
		t.Errorf("newest message lost: %q", last.Content)
	}
	for _, m := range w {
		if strings.HasPrefix(m.Content, "first:") {
			t.Error("oldest message should be trimmed first")
		}
	}
}

// TestHistory_KeepsNewestEvenOverBudget checks that a single oversized message
// survives.
func TestHistory_KeepsNewestEvenOverBudget(t *testing.T) {
	h := NewHistory(10)
	h.AddUser(strings.Repeat("x", 1000))
	if h.Len() != 1 {
		t.Errorf("len = %d, want 1", h.Len())
	}
}

// TestHistory_WindowIsCopy checks that mutating the returned slice does not
// corrupt the history.
func TestHistory_WindowIsCopy(t *testing.T) {
	h := NewHistory(0)
	h.AddUser("original")

	w := h.Window()
	w[0].Content = "mutated"

	if got := h.Window()[0].Content; got != "original" {
		t.Errorf("history mutated through Window copy: %q", got)
	}
}

// TestHistory_Clear checks that Clear empties the window.
func TestHistory_Clear(t *testing.T) {
	h := NewHistory(0)
	h.AddUser("hello")
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("len after Clear = %d, want 0", h.Len())
	}
}
