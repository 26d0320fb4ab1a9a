package screen

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

// Engine evaluates a fixed rule set against snapshots. Rules are
// independent; a snapshot can match several at once.
type Engine struct {
	rules map[string]snapshot.Predicate
}

// NewEngine creates a screening engine over the given rules. Passing
// nil uses DefaultRules.
func NewEngine(rules map[string]snapshot.Predicate) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// RuleIDs returns the engine's rule identifiers in sorted order.
func (e *Engine) RuleIDs() []string {
	ids := make([]string, 0, len(e.rules))
	for id := range e.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evaluate returns the rule IDs the snapshot matches, sorted. NaN
// fields fail every comparison, so incomplete snapshots simply never
// match.
func (e *Engine) Evaluate(snap *snapshot.Snapshot) []string {
	var flags []string
	for id, pred := range e.rules {
		if pred(snap) {
			flags = append(flags, id)
		}
	}
	sort.Strings(flags)
	return flags
}

// Screen evaluates every snapshot and keeps the ones matching at least
// one rule, preserving input order.
func (e *Engine) Screen(snaps []*snapshot.Snapshot) []snapshot.ScreeningResult {
	var results []snapshot.ScreeningResult
	for _, snap := range snaps {
		flags := e.Evaluate(snap)
		if len(flags) == 0 {
			continue
		}
		results = append(results, snapshot.ScreeningResult{Snapshot: snap, RuleFlags: flags})
	}

	log.Info().
		Int("evaluated", len(snaps)).
		Int("matched", len(results)).
		Msg("Screening complete")

	return results
}
