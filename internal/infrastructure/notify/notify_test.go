package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aeroqualify/internal/domain/qms"
)

func TestMergeRecipients(t *testing.T) {
	got := MergeRecipients(
		[]string{"team@example.com", " ", "QM@example.com"},
		[]string{"qm@example.com", "mm@example.com", ""},
	)
	want := []string{"team@example.com", "QM@example.com", "mm@example.com"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("MergeRecipients() = %v, want %v", got, want)
	}
}

func TestRenderTemplates(t *testing.T) {
	car := qms.CAR{ID: "CAR-1A2B3C4D", Severity: qms.SeverityCritical, FindingDescription: "Expired <MEL> item",
		DueDate: qms.MustParseDate("2026-08-01")}
	msg, err := Render(qms.Notification{Type: qms.EventNewCAR, Record: car})
	if err != nil {
		t.Fatalf("Render(new_car) error = %v", err)
	}
	if msg.Subject != "[AeroQualify] New CAR Raised: CAR-1A2B3C4D (Critical Severity)" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "2026-08-01") || !strings.Contains(msg.HTML, "Expired &lt;MEL&gt; item") {
		t.Fatalf("html = %s", msg.HTML)
	}

	v := qms.Verification{CARID: "CAR-1A2B3C4D", Status: qms.VerificationClosed, EffectivenessRating: qms.EffectivenessEffective}
	msg, err = Render(qms.Notification{Type: qms.EventVerificationSubmitted, Record: v})
	if err != nil {
		t.Fatalf("Render(verification) error = %v", err)
	}
	if msg.Subject != "[AeroQualify] CAPA Verification Complete: CAR-1A2B3C4D (Closed)" {
		t.Fatalf("subject = %q", msg.Subject)
	}

	if _, err := Render(qms.Notification{Type: "bogus"}); err == nil {
		t.Fatalf("Render(bogus) expected error")
	}
}

func TestEmailNotifierPostsMergedRecipients(t *testing.T) {
	var got emailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewEmailNotifier(EmailOptions{
		Endpoint:   srv.URL,
		APIKey:     "re_test",
		FromEmail:  "qms@example.com",
		TeamEmails: []string{"team@example.com"},
	}, srv.Client())

	capNotice := qms.CAPNotice{CAP: qms.CAP{CARID: "CAR-9"}, FindingDescription: "finding"}
	err := n.Notify(context.Background(), qms.Notification{
		Type:       qms.EventCAPSubmitted,
		Record:     capNotice,
		Recipients: []string{"qm@example.com", "team@example.com"},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if auth != "Bearer re_test" {
		t.Fatalf("Authorization = %q", auth)
	}
	if strings.Join(got.To, ",") != "team@example.com,qm@example.com" {
		t.Fatalf("to = %v", got.To)
	}
	if got.Subject != "[AeroQualify] CAP Submitted for Verification: CAR-9" {
		t.Fatalf("subject = %q", got.Subject)
	}
}

func TestEmailNotifierSkipsWithoutRecipientsOrKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	note := qms.Notification{Type: qms.EventNewCAR, Record: qms.CAR{ID: "CAR-1"}}

	noRecipients := NewEmailNotifier(EmailOptions{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
	if err := noRecipients.Notify(context.Background(), note); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	note.Recipients = []string{"a@example.com"}
	noKey := NewEmailNotifier(EmailOptions{Endpoint: srv.URL}, srv.Client())
	if err := noKey.Notify(context.Background(), note); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if calls != 0 {
		t.Fatalf("api called %d times", calls)
	}
}

func TestEmailNotifierSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid from", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	n := NewEmailNotifier(EmailOptions{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
	err := n.Notify(context.Background(), qms.Notification{
		Type: qms.EventNewCAR, Record: qms.CAR{ID: "CAR-1"}, Recipients: []string{"a@example.com"},
	})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("Notify() error = %v", err)
	}
}
