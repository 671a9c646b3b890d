// internal/domain/reminder/policy.go
package reminder

import (
	"database/sql"
)

// ServiceType identifies a category of renewable record. Each has its own policy.
type ServiceType string

const (
	ServiceVehicleInsurance ServiceType = "vehicle_insurance"
	ServiceHealthInsurance  ServiceType = "health_insurance"
	ServiceECPInsurance     ServiceType = "ecp_insurance"
	ServiceFireInsurance    ServiceType = "fire_insurance"
	ServiceLifeInsurance    ServiceType = "life_insurance"
	ServiceLabourLicense    ServiceType = "labour_license"
	ServiceDSC              ServiceType = "dsc"
	ServiceFactoryQuotation ServiceType = "factory_quotation"
)

// Thresholds used when a policy row predates reminder_intervals.
const (
	legacyUrgentDays   = 7
	legacyFollowUpDays = 15
	legacyMaxTier      = 3
)

// PolicyConfig is a reminder_configs row as stored. It is not validated.
// Corresponds to the 'reminder_configs' table.
type PolicyConfig struct {
	ServiceType       ServiceType
	ServiceName       string
	ReminderIntervals []int         // days before expiry, reminder k fires at ReminderIntervals[k-1]
	ReminderDays      sql.NullInt32 // legacy threshold for tier 1
	ReminderTimes     sql.NullInt32 // legacy reminder count, informational
	IsActive          bool
	CreatedBy         sql.NullInt64
	UpdatedBy         sql.NullInt64
}

// Policy is a validated, immutable reminder policy. Build it with NewPolicy.
type Policy struct {
	serviceType   ServiceType
	serviceName   string
	intervals     []int
	reminderDays  int
	reminderTimes int
}

// NewPolicy validates cfg and returns the policy it describes.
// Intervals, when present, must be positive and strictly decreasing.
// Without intervals a positive legacy ReminderDays is required.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	if cfg.ServiceType == "" {
		return Policy{}, newConfigError(cfg.ServiceType, "service type is empty")
	}

	p := Policy{
		serviceType: cfg.ServiceType,
		serviceName: cfg.ServiceName,
	}
	if p.serviceName == "" {
		p.serviceName = string(cfg.ServiceType)
	}

	if len(cfg.ReminderIntervals) > 0 {
		for i, days := range cfg.ReminderIntervals {
			if days <= 0 {
				return Policy{}, newConfigError(cfg.ServiceType, "reminder interval #%d is %d, must be positive", i+1, days)
			}
			if i > 0 && days >= cfg.ReminderIntervals[i-1] {
				return Policy{}, newConfigError(cfg.ServiceType, "reminder intervals %v are not strictly decreasing at position %d", cfg.ReminderIntervals, i+1)
			}
		}
		p.intervals = append([]int(nil), cfg.ReminderIntervals...)
		return p, nil
	}

	if !cfg.ReminderDays.Valid || cfg.ReminderDays.Int32 <= 0 {
		return Policy{}, newConfigError(cfg.ServiceType, "no reminder intervals and no legacy reminder days configured")
	}
	p.reminderDays = int(cfg.ReminderDays.Int32)
	if cfg.ReminderTimes.Valid {
		p.reminderTimes = int(cfg.ReminderTimes.Int32)
	}
	return p, nil
}

func (p Policy) ServiceType() ServiceType { return p.serviceType }

func (p Policy) ServiceName() string { return p.serviceName }

// Intervals returns a copy of the configured day offsets. Nil for legacy policies.
func (p Policy) Intervals() []int {
	if p.intervals == nil {
		return nil
	}
	return append([]int(nil), p.intervals...)
}

// UsesLegacy reports whether tiers come from ReminderDays instead of intervals.
func (p Policy) UsesLegacy() bool { return len(p.intervals) == 0 }

func (p Policy) ReminderDays() int { return p.reminderDays }

func (p Policy) ReminderTimes() int { return p.reminderTimes }

// MaxTier is the highest ordinal this policy can ever send.
func (p Policy) MaxTier() int {
	if p.UsesLegacy() {
		return legacyMaxTier
	}
	return len(p.intervals)
}

// Horizon is the furthest from expiry, in days, that this policy can send
// anything. Records further out than that are not worth fetching.
func (p Policy) Horizon() int {
	if p.UsesLegacy() {
		return max(p.reminderDays, legacyFollowUpDays)
	}
	return p.intervals[0]
}

// TierFor returns the most urgent tier reached with daysUntil days left, or 0.
// Expired records (daysUntil < 0) are treated as expiring today.
func (p Policy) TierFor(daysUntil int) int {
	if daysUntil < 0 {
		daysUntil = 0
	}

	if p.UsesLegacy() {
		switch {
		case daysUntil <= legacyUrgentDays:
			return 3
		case daysUntil <= legacyFollowUpDays:
			return 2
		case daysUntil <= p.reminderDays:
			return 1
		default:
			return 0
		}
	}

	// Intervals are strictly decreasing, so every threshold met is a later tier.
	tier := 0
	for i, days := range p.intervals {
		if daysUntil > days {
			break
		}
		tier = i + 1
	}
	return tier
}
