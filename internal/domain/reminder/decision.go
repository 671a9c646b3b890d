// internal/domain/reminder/decision.go
package reminder

// Outcome is why a record did or did not get a reminder.
type Outcome string

const (
	OutcomeDue         Outcome = "due"
	OutcomeNotYet      Outcome = "not_yet"      // no threshold reached
	OutcomeAlreadySent Outcome = "already_sent" // reached tier is not above the highest sent
	OutcomeExhausted   Outcome = "exhausted"    // the last tier has been sent
)

// Decision is the result of evaluating one record against one policy.
type Decision struct {
	Outcome Outcome
	Tier    int // tier reached; 0 when OutcomeNotYet or OutcomeExhausted
}

func (d Decision) Due() bool { return d.Outcome == OutcomeDue }

// Decide picks the reminder to send for a record with daysUntil days left,
// given the highest ordinal already sent (0 if none).
// Only the current tier fires; skipped tiers are never sent afterwards.
func Decide(p Policy, daysUntil int, maxSent int) Decision {
	if maxSent >= p.MaxTier() {
		return Decision{Outcome: OutcomeExhausted}
	}

	tier := p.TierFor(daysUntil)
	if tier == 0 {
		return Decision{Outcome: OutcomeNotYet}
	}
	if tier <= maxSent {
		return Decision{Outcome: OutcomeAlreadySent, Tier: tier}
	}
	return Decision{Outcome: OutcomeDue, Tier: tier}
}
