package app

import (
	"fmt"
	"sort"

	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"
)

// Addressee is one delivery target for a reminder.
type Addressee struct {
	Channel   notify.Channel
	Recipient notify.Recipient
}

// RecipientExtractor lists where a record's reminders go.
type RecipientExtractor func(rec *reminder.Record) []Addressee

// ContactRecipients sends email when the record has an email address and
// WhatsApp when it has a phone number.
func ContactRecipients(rec *reminder.Record) []Addressee {
	var out []Addressee
	if rec.Recipient.Email != "" {
		out = append(out, Addressee{
			Channel:   notify.ChannelEmail,
			Recipient: notify.Recipient{Name: rec.Recipient.Name, Address: rec.Recipient.Email},
		})
	}
	if rec.Recipient.Phone != "" {
		out = append(out, Addressee{
			Channel:   notify.ChannelWhatsApp,
			Recipient: notify.Recipient{Name: rec.Recipient.Name, Address: rec.Recipient.Phone},
		})
	}
	return out
}

// ServiceBundle is everything the dispatcher needs to handle one service type.
type ServiceBundle struct {
	Expiry     reminder.ExpiryResolver
	Renderer   Renderer
	Recipients RecipientExtractor
}

// Registry maps service types to their bundles. It is filled at startup and
// read-only afterwards.
type Registry struct {
	bundles map[reminder.ServiceType]ServiceBundle
}

func NewRegistry() *Registry {
	return &Registry{bundles: make(map[reminder.ServiceType]ServiceBundle)}
}

func (r *Registry) Register(st reminder.ServiceType, b ServiceBundle) error {
	if st == "" {
		return fmt.Errorf("cannot register an empty service type")
	}
	if b.Expiry == nil || b.Renderer == nil || b.Recipients == nil {
		return fmt.Errorf("incomplete bundle for service type %q", st)
	}
	if _, exists := r.bundles[st]; exists {
		return fmt.Errorf("service type %q registered twice", st)
	}
	r.bundles[st] = b
	return nil
}

func (r *Registry) Lookup(st reminder.ServiceType) (ServiceBundle, error) {
	b, ok := r.bundles[st]
	if !ok {
		return ServiceBundle{}, fmt.Errorf("%q: %w", st, reminder.ErrUnknownServiceType)
	}
	return b, nil
}

// ServiceTypes returns the registered types in name order.
func (r *Registry) ServiceTypes() []reminder.ServiceType {
	out := make([]reminder.ServiceType, 0, len(r.bundles))
	for st := range r.bundles {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRegistry registers every service type the back office tracks.
func DefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	for st, details := range detailTemplates {
		renderer, err := NewTemplateRenderer(defaultSubject, details)
		if err != nil {
			return nil, fmt.Errorf("templates for %s: %w", st, err)
		}
		var expiry reminder.ExpiryResolver = reminder.StoredExpiry{}
		if st == reminder.ServiceLifeInsurance {
			expiry = reminder.TermExpiry{}
		}
		if err := reg.Register(st, ServiceBundle{
			Expiry:     expiry,
			Renderer:   renderer,
			Recipients: ContactRecipients,
		}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
