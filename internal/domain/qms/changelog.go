package qms

import "time"

type ChangeAction string

const (
	ActionCreate ChangeAction = "CREATE"
	ActionUpdate ChangeAction = "UPDATE"
	ActionDelete ChangeAction = "DELETE"
)

// Tables named in the change log and change events.
const (
	TableCARs          = "cars"
	TableCAPs          = "caps"
	TableVerifications = "verifications"
	TableRisks         = "risks"
	TableManagers      = "managers"
)

// ChangeEntry is an append-only audit row. OldData/NewData are JSON snapshots.
type ChangeEntry struct {
	ID          string       `json:"id"`
	ActorID     string       `json:"actor_id"`
	ActorName   string       `json:"actor_name"`
	Action      ChangeAction `json:"action"`
	Table       string       `json:"table"`
	RecordID    string       `json:"record_id"`
	RecordTitle string       `json:"record_title"`
	OldData     string       `json:"old_data,omitempty"`
	NewData     string       `json:"new_data,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ChangeEvent is published on the live-update channel after a mutation.
// Subscribers reload everything; the fields only narrow logging.
type ChangeEvent struct {
	Table    string       `json:"table"`
	Action   ChangeAction `json:"action"`
	RecordID string       `json:"record_id"`
	At       time.Time    `json:"at"`
}
