package model

type Verification struct {
	ID                  string `gorm:"column:id;type:text;primaryKey"`
	CARID               string `gorm:"column:car_id;type:text;not null;uniqueIndex"`
	ImmediateActionOK   bool   `gorm:"column:immediate_action_ok;not null;default:0"`
	RootCauseOK         bool   `gorm:"column:root_cause_ok;not null;default:0"`
	CorrectiveActionOK  bool   `gorm:"column:corrective_action_ok;not null;default:0"`
	PreventiveActionOK  bool   `gorm:"column:preventive_action_ok;not null;default:0"`
	EvidenceOK          bool   `gorm:"column:evidence_ok;not null;default:0"`
	RecurrencePrevented bool   `gorm:"column:recurrence_prevented;not null;default:0"`
	EffectivenessRating string `gorm:"column:effectiveness_rating;type:text;not null"`
	Status              string `gorm:"column:status;type:text;not null"`
	VerifierComments    string `gorm:"column:verifier_comments;type:text;not null;default:''"`
	VerifiedBy          string `gorm:"column:verified_by;type:text;not null;default:''"`
	VerifiedByName      string `gorm:"column:verified_by_name;type:text;not null;default:''"`
	VerifiedAt          string `gorm:"column:verified_at;type:text;not null"`
}

func (Verification) TableName() string {
	return "verifications"
}
