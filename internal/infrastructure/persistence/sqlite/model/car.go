package model

type CAR struct {
	ID                      string `gorm:"column:id;type:text;primaryKey"`
	Title                   string `gorm:"column:title;type:text;not null"`
	FindingDescription      string `gorm:"column:finding_description;type:text;not null"`
	QMSClause               string `gorm:"column:qms_clause;type:text;not null;default:''"`
	Severity                string `gorm:"column:severity;type:text;not null"`
	Status                  string `gorm:"column:status;type:text;not null;index"`
	Department              string `gorm:"column:department;type:text;not null;default:''"`
	ResponsibleManager      string `gorm:"column:responsible_manager;type:text;not null;default:''"`
	ResponsibleManagerEmail string `gorm:"column:responsible_manager_email;type:text;not null;default:''"`
	DateRaised              string `gorm:"column:date_raised;type:text;not null;default:''"`
	DueDate                 string `gorm:"column:due_date;type:text;not null;default:''"`
	RaisedBy                string `gorm:"column:raised_by;type:text;not null;default:''"`
	RaisedByName            string `gorm:"column:raised_by_name;type:text;not null;default:''"`
	CreatedAt               string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt               string `gorm:"column:updated_at;type:text;not null"`
}

func (CAR) TableName() string {
	return "cars"
}
