package reminder

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vehiclePolicy(t *testing.T) Policy {
	t.Helper()
	p, err := NewPolicy(PolicyConfig{
		ServiceType:       ServiceVehicleInsurance,
		ReminderIntervals: []int{30, 15, 7, 3, 1},
		IsActive:          true,
	})
	require.NoError(t, err)
	return p
}

func TestDecide_PicksMostUrgentTierReached(t *testing.T) {
	d := Decide(vehiclePolicy(t), 10, 0)
	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 2}, d)
	assert.True(t, d.Due())
}

func TestDecide_NoCatchUpOfSkippedTiers(t *testing.T) {
	d := Decide(vehiclePolicy(t), 1, 0)
	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 5}, d)
}

func TestDecide_ProgressionIsMonotonic(t *testing.T) {
	p := vehiclePolicy(t)

	// #3 went out, then the expiry date was corrected so only tier 2 is reached.
	d := Decide(p, 12, 3)
	assert.Equal(t, OutcomeAlreadySent, d.Outcome)
	assert.False(t, d.Due())

	d = Decide(p, 3, 3)
	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 4}, d)
}

func TestDecide_SameTierNotResent(t *testing.T) {
	d := Decide(vehiclePolicy(t), 14, 2)
	assert.Equal(t, Decision{Outcome: OutcomeAlreadySent, Tier: 2}, d)
}

func TestDecide_NotYet(t *testing.T) {
	d := Decide(vehiclePolicy(t), 31, 0)
	assert.Equal(t, Decision{Outcome: OutcomeNotYet}, d)
}

func TestDecide_ExhaustedPolicy(t *testing.T) {
	p := vehiclePolicy(t)
	for _, days := range []int{30, 1, 0, -1, -400} {
		d := Decide(p, days, 5)
		assert.Equal(t, Decision{Outcome: OutcomeExhausted}, d, "daysUntil=%d", days)
	}
}

func TestDecide_ExpiredRecordGetsFinalTierOnce(t *testing.T) {
	p := vehiclePolicy(t)

	d := Decide(p, -3, 2)
	require.True(t, d.Due())
	assert.Equal(t, 5, d.Tier)

	assert.False(t, Decide(p, -4, 5).Due())
}

func TestDecide_RoundTripScenario(t *testing.T) {
	p := vehiclePolicy(t)
	maxSent := 0
	var sent []int

	for days := 16; days >= 0; days-- {
		d := Decide(p, days, maxSent)
		if d.Due() {
			sent = append(sent, d.Tier)
			maxSent = d.Tier
		}
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, sent)
	assert.False(t, Decide(p, -1, maxSent).Due())
}

func TestDecide_LegacyPolicy(t *testing.T) {
	p, err := NewPolicy(PolicyConfig{
		ServiceType:  ServiceFireInsurance,
		ReminderDays: sql.NullInt32{Int32: 30, Valid: true},
	})
	require.NoError(t, err)

	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 1}, Decide(p, 20, 0))
	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 2}, Decide(p, 12, 1))
	assert.Equal(t, Decision{Outcome: OutcomeAlreadySent, Tier: 2}, Decide(p, 9, 2))
	assert.Equal(t, Decision{Outcome: OutcomeDue, Tier: 3}, Decide(p, 2, 2))
	assert.Equal(t, Decision{Outcome: OutcomeExhausted}, Decide(p, 0, 3))
}
