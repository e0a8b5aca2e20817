// Package command implements spoken-shortcut detection on recognized
// utterances. Utterances are checked against a set of command phrases before
// they reach the chat pipeline; a match executes the command's action instead
// of sending the text to the model.
//
// Matching is deliberately forgiving: speech recognition routinely mangles
// short imperatives ("stop listening" → "stop lissening"), so phrases are
// compared with Double Metaphone phonetic codes and ranked by Jaro-Winkler
// similarity rather than exact string equality.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Command pairs a set of trigger phrases with the action to execute when an
// utterance matches one of them.
type Command struct {
	// Name is a human-readable label for logging.
	Name string

	// Phrases are the canonical spoken forms that trigger the command.
	Phrases []string

	// Action executes the command. The returned string is a short result
	// description for logging.
	Action func(ctx context.Context) (string, error)
}

// Filter checks recognized utterances against a set of commands.
//
// All methods are safe for concurrent use — Filter is read-only after
// construction.
type Filter struct {
	commands []Command
	matcher  *matcher
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// WithThreshold sets the minimum similarity score (0–1) an utterance must
// reach against a phrase to count as a match. Default: 0.82.
func WithThreshold(threshold float64) Option {
	return func(f *Filter) { f.matcher.threshold = threshold }
}

// New creates a Filter over the given commands.
func New(commands []Command, opts ...Option) *Filter {
	f := &Filter{
		commands: commands,
		matcher:  newMatcher(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Check tests whether text matches a command phrase. If a match is found the
// command's action is executed and Check returns (true, nil); errors from
// action execution are returned as (true, err). When no command matches, the
// utterance should continue to the chat pipeline and Check returns
// (false, nil).
func (f *Filter) Check(ctx context.Context, text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}

	var (
		best      *Command
		bestScore float64
	)
	for i := range f.commands {
		for _, phrase := range f.commands[i].Phrases {
			if score, ok := f.matcher.match(trimmed, phrase); ok && score > bestScore {
				best = &f.commands[i]
				bestScore = score
			}
		}
	}
	if best == nil {
		return false, nil
	}

	result, err := best.Action(ctx)
	if err != nil {
		slog.Warn("command: action failed",
			"command", best.Name,
			"text", trimmed,
			"error", err,
		)
		return true, fmt.Errorf("command: %s: %w", best.Name, err)
	}

	slog.Info("command: executed",
		"command", best.Name,
		"text", trimmed,
		"score", bestScore,
		"result", result,
	)
	return true, nil
}
