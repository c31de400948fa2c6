package model

type CAP struct {
	ID                string `gorm:"column:id;type:text;primaryKey"`
	CARID             string `gorm:"column:car_id;type:text;not null;uniqueIndex"`
	ImmediateAction   string `gorm:"column:immediate_action;type:text;not null;default:''"`
	RootCauseAnalysis string `gorm:"column:root_cause_analysis;type:text;not null;default:''"`
	CorrectiveAction  string `gorm:"column:corrective_action;type:text;not null;default:''"`
	PreventiveAction  string `gorm:"column:preventive_action;type:text;not null;default:''"`
	// EvidenceFiles is NULL on rows written before the list column existed.
	EvidenceFiles    *string `gorm:"column:evidence_files;type:text"`
	EvidenceFilename string  `gorm:"column:evidence_filename;type:text;not null;default:''"`
	EvidenceURL      string  `gorm:"column:evidence_url;type:text;not null;default:''"`
	Status           string  `gorm:"column:status;type:text;not null"`
	SubmittedBy      string  `gorm:"column:submitted_by;type:text;not null;default:''"`
	SubmittedByName  string  `gorm:"column:submitted_by_name;type:text;not null;default:''"`
	SubmittedAt      string  `gorm:"column:submitted_at;type:text;not null"`
}

func (CAP) TableName() string {
	return "caps"
}
