package intent

import "roomservice/internal/models"

// Override maps unambiguous lexical cues straight to a label, bypassing
// every scoring strategy.
type Override struct {
	Phrases []string
	Intent  models.Intent
	Cancel  bool
}

// Overrides is the fixed override table consulted before any strategy runs
var Overrides = []Override{
	{
		Phrases: []string{
			"cancel", "cancel that", "cancel my order", "never mind", "nevermind",
			"forget it", "forget about it", "abort", "stop",
		},
		Intent: models.IntentUnsupportedAction,
		Cancel: true,
	},
}

type preparedOverride struct {
	phrases []string
	intent  models.Intent
	cancel  bool
}

func prepareOverrides(table []Override) []preparedOverride {
	out := make([]preparedOverride, 0, len(table))
	for _, o := range table {
		out = append(out, preparedOverride{phrases: prepare(o.Phrases), intent: o.Intent, cancel: o.Cancel})
	}
	return out
}

var defaultOverrides = prepareOverrides(Overrides)

func matchOverride(u utterance, table []preparedOverride) (preparedOverride, bool) {
	for _, o := range table {
		if u.hasAny(o.phrases) {
			return o, true
		}
	}
	return preparedOverride{}, false
}

// IsCancellation reports whether text hits a cancelling override
func IsCancellation(text string) bool {
	o, ok := matchOverride(newUtterance(text), defaultOverrides)
	return ok && o.cancel
}
