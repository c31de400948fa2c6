package qms

type EventType string

const (
	EventNewCAR                EventType = "new_car"
	EventCAPSubmitted          EventType = "cap_submitted"
	EventVerificationSubmitted EventType = "verification_submitted"
)

// Notification is what a notifier delivers. Record is the entity snapshot
// that triggered the event.
type Notification struct {
	Type       EventType `json:"type"`
	Record     any       `json:"record"`
	Recipients []string  `json:"recipients"`
}

// CAPNotice is the cap_submitted payload: the plan plus the CAR context a
// verifier needs.
type CAPNotice struct {
	CAP
	FindingDescription string `json:"finding_description"`
	QMSClause          string `json:"qms_clause"`
}
