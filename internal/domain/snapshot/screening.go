package snapshot

// Predicate is a pure boolean screening rule over one snapshot.
type Predicate func(*Snapshot) bool

// ScreeningResult pairs a snapshot with the ids of every rule it
// matched. Snapshots matching no rule never appear in results.
type ScreeningResult struct {
	Snapshot  *Snapshot `json:"snapshot"`
	RuleFlags []string  `json:"rule_flags"`
}

// Matched reports whether the given rule id flagged this result.
func (r ScreeningResult) Matched(ruleID string) bool {
	for _, id := range r.RuleFlags {
		if id == ruleID {
			return true
		}
	}
	return false
}
