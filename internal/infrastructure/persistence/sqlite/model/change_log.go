package model

// ChangeLog rows are append-only.
type ChangeLog struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	ActorID     string `gorm:"column:actor_id;type:text;not null;default:''"`
	ActorName   string `gorm:"column:actor_name;type:text;not null;default:''"`
	Action      string `gorm:"column:action;type:text;not null"`
	RecordTable string `gorm:"column:table_name;type:text;not null;index"`
	RecordID    string `gorm:"column:record_id;type:text;not null;index"`
	RecordTitle string `gorm:"column:record_title;type:text;not null;default:''"`
	OldData     string `gorm:"column:old_data;type:text;not null;default:''"`
	NewData     string `gorm:"column:new_data;type:text;not null;default:''"`
	CreatedAt   string `gorm:"column:created_at;type:text;not null;index"`
}

func (ChangeLog) TableName() string {
	return "change_log"
}
