package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"aeroqualify/internal/domain/qms"
)

const layout = `{{define "row"}}<tr><td style="padding:7px 0;font-size:12px;color:#5f7285;width:140px;vertical-align:top">{{.Label}}</td><td style="padding:7px 0;font-size:13px;color:#1a2332">{{if .Value}}{{.Value}}{{else}}-{{end}}</td></tr>{{end}}
{{define "frame"}}<div style="font-family:'Segoe UI',sans-serif;max-width:580px;margin:0 auto;background:#f0f4f8;padding:20px">
<div style="background:#fff;border-radius:12px;border:1px solid #dde3ea">
<div style="background:#01579b;padding:20px 24px;color:#fff;font-size:18px;font-weight:700">AeroQualify</div>
<div style="padding:24px">{{template "body" .}}</div>
<div style="padding:12px 24px;background:#f5f8fc;font-size:11px;color:#8fa0b0;text-align:center">Automated notification from the AeroQualify QMS</div>
</div></div>{{end}}`

var bodies = map[qms.EventType]string{
	qms.EventNewCAR: `{{define "body"}}<h2 style="color:#01579b;margin:0 0 4px">New Corrective Action Request</h2>
<p style="color:#5f7285;font-size:13px">A new CAR has been raised and assigned to you for action.</p>
<p style="font-family:monospace;font-size:16px;font-weight:700">{{.R.id}}</p><p>{{.R.finding_description}}</p>
<table style="width:100%;border-collapse:collapse">
{{template "row" (row "QMS Clause" .R.qms_clause)}}{{template "row" (row "Severity" .R.severity)}}
{{template "row" (row "Department" .R.department)}}{{template "row" (row "Raised By" .R.raised_by_name)}}
{{template "row" (row "Due Date" .R.due_date)}}
</table>
<p style="padding:12px 16px;background:#fff3e0;font-size:12px;color:#e65100"><strong>Action Required:</strong> complete the Corrective Action Plan for this CAR.</p>{{end}}`,

	qms.EventCAPSubmitted: `{{define "body"}}<h2 style="color:#4527a0;margin:0 0 4px">CAP Ready for Verification</h2>
<p style="color:#5f7285;font-size:13px">A Corrective Action Plan has been submitted and is pending your verification.</p>
<p style="font-family:monospace;font-size:16px;font-weight:700">{{.R.car_id}}</p><p>{{.R.finding_description}}</p>
<table style="width:100%;border-collapse:collapse">
{{template "row" (row "QMS Clause" .R.qms_clause)}}{{template "row" (row "Immediate Action" .R.immediate_action)}}
{{template "row" (row "Root Cause" .R.root_cause_analysis)}}{{template "row" (row "Corrective Action" .R.corrective_action)}}
{{template "row" (row "Preventive Action" .R.preventive_action)}}{{template "row" (row "Evidence" .R.evidence_filename)}}
</table>
<p style="padding:12px 16px;background:#e8f5e9;font-size:12px;color:#2e7d32"><strong>Action Required:</strong> review and verify this CAP.</p>{{end}}`,

	qms.EventVerificationSubmitted: `{{define "body"}}<h2 style="margin:0 0 4px">CAPA Verification: {{.R.status}}</h2>
<p style="color:#5f7285;font-size:13px">The Quality Manager has completed verification of the CAPA for finding {{.R.car_id}}.</p>
<table style="width:100%;border-collapse:collapse">
{{template "row" (row "CAR Number" .R.car_id)}}{{template "row" (row "Final Status" .R.status)}}
{{template "row" (row "Effectiveness" .R.effectiveness_rating)}}{{template "row" (row "Verified By" .R.verified_by_name)}}
{{template "row" (row "Comments" .R.verifier_comments)}}
</table>{{end}}`,
}

type rowData struct {
	Label string
	Value any
}

var funcs = template.FuncMap{
	"row": func(label string, value any) rowData { return rowData{Label: label, Value: value} },
}

var templates = func() map[qms.EventType]*template.Template {
	out := make(map[qms.EventType]*template.Template, len(bodies))
	for event, body := range bodies {
		t := template.Must(template.New(string(event)).Funcs(funcs).Parse(layout))
		out[event] = template.Must(t.Parse(body))
	}
	return out
}()

// Message is a rendered e-mail.
type Message struct {
	Subject string
	HTML    string
}

// Render builds the subject and HTML body for n. The record is flattened
// through its JSON form so templates address fields by their wire names.
func Render(n qms.Notification) (Message, error) {
	t, ok := templates[n.Type]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification type %q", n.Type)
	}

	record, err := flatten(n.Record)
	if err != nil {
		return Message{}, err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "frame", struct{ R map[string]any }{R: record}); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", n.Type, err)
	}
	return Message{Subject: subject(n.Type, record), HTML: buf.String()}, nil
}

func subject(event qms.EventType, r map[string]any) string {
	switch event {
	case qms.EventNewCAR:
		return fmt.Sprintf("[AeroQualify] New CAR Raised: %v (%v Severity)", r["id"], r["severity"])
	case qms.EventCAPSubmitted:
		return fmt.Sprintf("[AeroQualify] CAP Submitted for Verification: %v", carRef(r))
	default:
		return fmt.Sprintf("[AeroQualify] CAPA Verification Complete: %v (%v)", carRef(r), r["status"])
	}
}

func carRef(r map[string]any) any {
	if id, ok := r["car_id"]; ok && id != "" {
		return id
	}
	return r["id"]
}

func flatten(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode notification record: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode notification record: %w", err)
	}
	return out, nil
}
