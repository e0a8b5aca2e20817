package chat

import "strings"

// splitThinking separates a reasoning model's <think>...</think> block from
// the final answer. When no complete block is present the whole content is
// the answer and thinking is empty. Only the first block is extracted;
// history stores the answer alone so reasoning never feeds back into the
// prompt.
func splitThinking(content string) (thinking, answer string) {
	start := strings.Index(content, "<think>")
	if start == -1 {
		return "", strings.TrimSpace(content)
	}
	rest := content[start+len("<think>"):]
	end := strings.Index(rest, "</think>")
	if end == -1 {
		return "", strings.TrimSpace(content)
	}
	thinking = strings.TrimSpace(rest[:end])
	answer = strings.TrimSpace(content[:start] + rest[end+len("</think>"):])
	return thinking, answer
}
