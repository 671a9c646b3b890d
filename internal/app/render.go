package app

import (
	"fmt"
	"strings"
	"text/template"

	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"
)

// MessageData is what reminder templates see.
type MessageData struct {
	ServiceName   string
	RecipientName string
	Tier          int
	TotalTiers    int
	ExpiryDate    string // DD-MM-YYYY
	DaysUntil     int
	Expired       bool
	Fields        map[string]string
}

// DaysOverdue is the number of days since expiry, 0 if not expired.
func (d MessageData) DaysOverdue() int {
	if d.DaysUntil >= 0 {
		return 0
	}
	return -d.DaysUntil
}

// TemplateParams fills the WhatsApp template placeholders {{1}}..{{5}}:
// recipient name, service name, expiry date, reference number and "tier of
// total". The API rejects empty parameters, so blanks become "-".
func (d MessageData) TemplateParams() []string {
	name := d.RecipientName
	if name == "" {
		name = "Customer"
	}
	ref := d.Fields[reminder.FieldReference]
	if ref == "" {
		ref = "-"
	}
	return []string{
		name,
		d.ServiceName,
		d.ExpiryDate,
		ref,
		fmt.Sprintf("%d of %d", d.Tier, d.TotalTiers),
	}
}

func newMessageData(p reminder.Policy, rec *reminder.Record, exp reminder.Expiry, tier int) MessageData {
	return MessageData{
		ServiceName:   p.ServiceName(),
		RecipientName: rec.Recipient.Name,
		Tier:          tier,
		TotalTiers:    p.MaxTier(),
		ExpiryDate:    exp.Date.Format("02-01-2006"),
		DaysUntil:     exp.DaysUntil,
		Expired:       exp.Expired(),
		Fields:        rec.Fields,
	}
}

// Renderer turns message data into reminder content.
type Renderer interface {
	Render(data MessageData) (notify.Message, error)
}

const bodyLayout = `Dear {{if .RecipientName}}{{.RecipientName}}{{else}}Customer{{end}},

{{if .Expired}}Your {{.ServiceName}} expired on {{.ExpiryDate}}, {{.DaysOverdue}} day(s) ago.
{{- else if eq .DaysUntil 0}}Your {{.ServiceName}} expires today ({{.ExpiryDate}}).
{{- else}}Your {{.ServiceName}} expires on {{.ExpiryDate}}, in {{.DaysUntil}} day(s).{{end}}

{{template "details" .}}
Please contact us to arrange the renewal.

Reminder {{.Tier}} of {{.TotalTiers}}`

const defaultSubject = `{{.ServiceName}} renewal reminder{{with .Fields.reference_no}} ({{.}}){{end}}`

// TemplateRenderer renders a subject template and the shared body layout with a
// per-service "details" block. Missing fields render as empty strings.
type TemplateRenderer struct {
	subject *template.Template
	body    *template.Template
}

func NewTemplateRenderer(subject, details string) (*TemplateRenderer, error) {
	s, err := template.New("subject").Option("missingkey=zero").Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject template: %w", err)
	}
	b, err := template.New("body").Option("missingkey=zero").Parse(bodyLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse body layout: %w", err)
	}
	if _, err := b.New("details").Parse(details); err != nil {
		return nil, fmt.Errorf("failed to parse details template: %w", err)
	}
	return &TemplateRenderer{subject: s, body: b}, nil
}

func (r *TemplateRenderer) Render(data MessageData) (notify.Message, error) {
	var subject, body strings.Builder
	if err := r.subject.Execute(&subject, data); err != nil {
		return notify.Message{}, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := r.body.Execute(&body, data); err != nil {
		return notify.Message{}, fmt.Errorf("failed to render body: %w", err)
	}
	return notify.Message{
		Subject: strings.TrimSpace(subject.String()),
		Body:    strings.TrimSpace(body.String()),
		Params:  data.TemplateParams(),
	}, nil
}

var detailTemplates = map[reminder.ServiceType]string{
	reminder.ServiceVehicleInsurance: `{{with .Fields.reference_no}}Policy number: {{.}}
{{end}}{{with .Fields.subject_name}}Vehicle: {{.}}
{{end}}{{with .Fields.amount}}Last premium: {{.}}
{{end}}`,
	reminder.ServiceHealthInsurance: `{{with .Fields.reference_no}}Policy number: {{.}}
{{end}}{{with .Fields.subject_name}}Plan: {{.}}
{{end}}{{with .Fields.amount}}Sum insured: {{.}}
{{end}}`,
	reminder.ServiceECPInsurance: `{{with .Fields.reference_no}}Policy number: {{.}}
{{end}}{{with .Fields.company_name}}Employer: {{.}}
{{end}}{{with .Fields.amount}}Premium: {{.}}
{{end}}`,
	reminder.ServiceFireInsurance: `{{with .Fields.reference_no}}Policy number: {{.}}
{{end}}{{with .Fields.subject_name}}Insured premises: {{.}}
{{end}}{{with .Fields.amount}}Sum insured: {{.}}
{{end}}`,
	reminder.ServiceLifeInsurance: `{{with .Fields.reference_no}}Policy number: {{.}}
{{end}}{{with .Fields.subject_name}}Plan: {{.}}
{{end}}{{with .Fields.amount}}Premium: {{.}}
{{end}}`,
	reminder.ServiceLabourLicense: `{{with .Fields.reference_no}}License number: {{.}}
{{end}}{{with .Fields.company_name}}Establishment: {{.}}
{{end}}`,
	reminder.ServiceDSC: `{{with .Fields.reference_no}}Certificate: {{.}}
{{end}}{{with .Fields.subject_name}}Holder: {{.}}
{{end}}{{with .Fields.company_name}}Company: {{.}}
{{end}}`,
	reminder.ServiceFactoryQuotation: `{{with .Fields.reference_no}}Quotation number: {{.}}
{{end}}{{with .Fields.company_name}}Factory: {{.}}
{{end}}{{with .Fields.amount}}Amount: {{.}}
{{end}}`,
}
