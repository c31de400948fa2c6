package model

type Risk struct {
	ID                 string `gorm:"column:id;type:text;primaryKey"`
	Category           string `gorm:"column:category;type:text;not null;default:''"`
	HazardDescription  string `gorm:"column:hazard_description;type:text;not null"`
	Consequence        string `gorm:"column:consequence;type:text;not null;default:''"`
	Severity           int    `gorm:"column:severity;not null"`
	Likelihood         int    `gorm:"column:likelihood;not null"`
	ExistingControls   string `gorm:"column:existing_controls;type:text;not null;default:''"`
	TreatmentAction    string `gorm:"column:treatment_action;type:text;not null;default:''"`
	ResponsiblePerson  string `gorm:"column:responsible_person;type:text;not null;default:''"`
	TargetDate         string `gorm:"column:target_date;type:text;not null;default:''"`
	ResidualSeverity   int    `gorm:"column:residual_severity;not null"`
	ResidualLikelihood int    `gorm:"column:residual_likelihood;not null"`
	InherentIndex      int    `gorm:"column:inherent_index;not null"`
	InherentRating     string `gorm:"column:inherent_rating;type:text;not null"`
	ResidualIndex      int    `gorm:"column:residual_index;not null"`
	ResidualRating     string `gorm:"column:residual_rating;type:text;not null"`
	Status             string `gorm:"column:status;type:text;not null"`
	LinkedCARID        string `gorm:"column:linked_car_id;type:text;not null;default:''"`
	ReviewNotes        string `gorm:"column:review_notes;type:text;not null;default:''"`
	CreatedAt          string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt          string `gorm:"column:updated_at;type:text;not null"`
}

func (Risk) TableName() string {
	return "risk_register"
}
