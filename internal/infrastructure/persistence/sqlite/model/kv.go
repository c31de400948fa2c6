package model

type KV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	ExpiresAt string `gorm:"column:expires_at;type:text;not null;default:''"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (KV) TableName() string {
	return "qms_kv"
}

// All lists every model migrated by init-db.
func All() []any {
	return []any{
		&CAR{},
		&CAP{},
		&Verification{},
		&Risk{},
		&Document{},
		&FlightDoc{},
		&Audit{},
		&Contractor{},
		&ResponsibleManager{},
		&ChangeLog{},
		&KV{},
	}
}
