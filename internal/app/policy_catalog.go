package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"renewal_reminders/internal/domain/reminder"
)

// LoadedPolicies is the result of loading the active policy set. Policies are
// ready to evaluate; Errors name the service types that must be skipped.
type LoadedPolicies struct {
	Policies []reminder.Policy
	Errors   []*reminder.ConfigurationError
}

// PolicyCatalog validates stored policy rows against the registry.
type PolicyCatalog struct {
	repo     reminder.PolicyRepository
	registry *Registry
}

func NewPolicyCatalog(repo reminder.PolicyRepository, registry *Registry) *PolicyCatalog {
	return &PolicyCatalog{repo: repo, registry: registry}
}

// LoadActive returns every active policy that can be evaluated. A bad row only
// produces a ConfigurationError for its own service type; the call fails only
// when the repository does.
func (c *PolicyCatalog) LoadActive(ctx context.Context) (LoadedPolicies, error) {
	configs, err := c.repo.ListActive(ctx)
	if err != nil {
		return LoadedPolicies{}, fmt.Errorf("failed to list active policies: %w", err)
	}

	var out LoadedPolicies
	for _, cfg := range configs {
		if !cfg.IsActive {
			continue
		}
		p, err := c.build(*cfg)
		if err != nil {
			out.Errors = append(out.Errors, err)
			continue
		}
		out.Policies = append(out.Policies, p)
	}

	sort.Slice(out.Policies, func(i, j int) bool {
		return out.Policies[i].ServiceType() < out.Policies[j].ServiceType()
	})
	sort.Slice(out.Errors, func(i, j int) bool {
		return out.Errors[i].ServiceType < out.Errors[j].ServiceType
	})
	return out, nil
}

// Get loads and validates the active policy of one service type.
func (c *PolicyCatalog) Get(ctx context.Context, st reminder.ServiceType) (reminder.Policy, error) {
	cfg, err := c.repo.GetActiveByService(ctx, st)
	if err != nil {
		return reminder.Policy{}, err
	}
	p, cfgErr := c.build(*cfg)
	if cfgErr != nil {
		return reminder.Policy{}, cfgErr
	}
	return p, nil
}

func (c *PolicyCatalog) build(cfg reminder.PolicyConfig) (reminder.Policy, *reminder.ConfigurationError) {
	p, err := reminder.NewPolicy(cfg)
	if err != nil {
		var cfgErr *reminder.ConfigurationError
		if errors.As(err, &cfgErr) {
			return reminder.Policy{}, cfgErr
		}
		return reminder.Policy{}, &reminder.ConfigurationError{ServiceType: cfg.ServiceType, Reason: err.Error(), Err: err}
	}
	if _, err := c.registry.Lookup(cfg.ServiceType); err != nil {
		return reminder.Policy{}, &reminder.ConfigurationError{
			ServiceType: cfg.ServiceType,
			Reason:      "no templates or record source registered",
			Err:         reminder.ErrUnknownServiceType,
		}
	}
	return p, nil
}
