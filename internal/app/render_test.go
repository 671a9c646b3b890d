package app

import (
	"testing"

	"renewal_reminders/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_Vehicle(t *testing.T) {
	r, err := NewTemplateRenderer(defaultSubject, detailTemplates[reminder.ServiceVehicleInsurance])
	require.NoError(t, err)

	msg, err := r.Render(MessageData{
		ServiceName:   "Vehicle Insurance",
		RecipientName: "Asha Rao",
		Tier:          2,
		TotalTiers:    5,
		ExpiryDate:    "11-05-2025",
		DaysUntil:     10,
		Fields: map[string]string{
			reminder.FieldReference: "VI-1001",
			reminder.FieldSubject:   "MH12AB1234",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Vehicle Insurance renewal reminder (VI-1001)", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Asha Rao,")
	assert.Contains(t, msg.Body, "expires on 11-05-2025, in 10 day(s).")
	assert.Contains(t, msg.Body, "Policy number: VI-1001\n")
	assert.Contains(t, msg.Body, "Vehicle: MH12AB1234\n")
	assert.NotContains(t, msg.Body, "Last premium")
	assert.True(t, len(msg.Body) > 0 && msg.Body[len(msg.Body)-1] == '5', "body ends with the tier line")
	assert.Equal(t, []string{"Asha Rao", "Vehicle Insurance", "11-05-2025", "VI-1001", "2 of 5"}, msg.Params)
}

func TestTemplateRenderer_MissingFieldsRenderEmpty(t *testing.T) {
	r, err := NewTemplateRenderer(defaultSubject, detailTemplates[reminder.ServiceDSC])
	require.NoError(t, err)

	msg, err := r.Render(MessageData{ServiceName: "DSC", Tier: 1, TotalTiers: 3, ExpiryDate: "01-06-2025", DaysUntil: 0})
	require.NoError(t, err)

	assert.Equal(t, "DSC renewal reminder", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Customer,")
	assert.Contains(t, msg.Body, "expires today (01-06-2025).")
	assert.NotContains(t, msg.Body, "<no value>")
	assert.NotContains(t, msg.Body, "Holder:")
	assert.Equal(t, []string{"Customer", "DSC", "01-06-2025", "-", "1 of 3"}, msg.Params)
}

func TestTemplateRenderer_Expired(t *testing.T) {
	r, err := NewTemplateRenderer(defaultSubject, detailTemplates[reminder.ServiceFireInsurance])
	require.NoError(t, err)

	msg, err := r.Render(MessageData{ServiceName: "Fire Insurance", Tier: 3, TotalTiers: 3, ExpiryDate: "28-04-2025", DaysUntil: -3, Expired: true})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "expired on 28-04-2025, 3 day(s) ago.")
}

func TestNewTemplateRenderer_RejectsBadTemplate(t *testing.T) {
	_, err := NewTemplateRenderer("{{.ServiceName", "")
	assert.Error(t, err)

	_, err = NewTemplateRenderer(defaultSubject, "{{if}}")
	assert.Error(t, err)
}
