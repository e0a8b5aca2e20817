package chat

import "testing"

// TestSplitThinking covers the reasoning-block extraction cases.
func TestSplitThinking(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantThinking string
		wantAnswer   string
	}{
		{
			name:         "with block",
			content:      "<think>reasoning here</think>The answer.",
			wantThinking: "reasoning here",
			wantAnswer:   "The answer.",
		},
		{
			name:         "no block",
			content:      "Just an answer.",
			wantThinking: "",
			wantAnswer:   "Just an answer.",
		},
		{
			name:         "unterminated block",
			content:      "<think>never closed",
			wantThinking: "",
			wantAnswer:   "<think>never closed",
		},
		{
			name:         "whitespace trimmed",
			content:      "<think>\n  thoughts \n</think>\n\n  Answer  ",
			wantThinking: "thoughts",
			wantAnswer:   "Answer",
		},
		{
			name:         "text before block",
			content:      "Preamble <think>t</think> rest",
			wantThinking: "t",
			wantAnswer:   "Preamble  rest",
		},
		{
			name:         "empty",
			content:      "",
			wantThinking: "",
			wantAnswer:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thinking, answer := splitThinking(tt.content)
			if thinking != tt.wantThinking {
				t.Errorf("thinking = %q, want %q", thinking, tt.wantThinking)
			}
			if answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", answer, tt.wantAnswer)
			}
		})
	}
}
