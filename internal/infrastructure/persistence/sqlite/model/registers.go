package model

type Document struct {
	ID         string `gorm:"column:id;type:text;primaryKey"`
	Title      string `gorm:"column:title;type:text;not null"`
	Rev        string `gorm:"column:rev;type:text;not null;default:''"`
	Status     string `gorm:"column:status;type:text;not null;default:''"`
	DocSection string `gorm:"column:doc_section;type:text;not null;default:''"`
	Category   string `gorm:"column:category;type:text;not null;default:''"`
	Owner      string `gorm:"column:owner;type:text;not null;default:''"`
	Date       string `gorm:"column:date;type:text;not null;default:''"`
	ExpiryDate string `gorm:"column:expiry_date;type:text;not null;default:''"`
	ApprovedBy string `gorm:"column:approved_by;type:text;not null;default:''"`
	UpdatedAt  string `gorm:"column:updated_at;type:text;not null"`
}

func (Document) TableName() string {
	return "documents"
}

type FlightDoc struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	Title       string `gorm:"column:title;type:text;not null"`
	DocType     string `gorm:"column:doc_type;type:text;not null;default:''"`
	IssuingBody string `gorm:"column:issuing_body;type:text;not null;default:''"`
	IssueDate   string `gorm:"column:issue_date;type:text;not null;default:''"`
	ExpiryDate  string `gorm:"column:expiry_date;type:text;not null;default:''"`
	Status      string `gorm:"column:status;type:text;not null;default:''"`
	Notes       string `gorm:"column:notes;type:text;not null;default:''"`
	UpdatedAt   string `gorm:"column:updated_at;type:text;not null"`
}

func (FlightDoc) TableName() string {
	return "flight_docs"
}

type Audit struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	Title     string `gorm:"column:title;type:text;not null"`
	Type      string `gorm:"column:type;type:text;not null;default:''"`
	Status    string `gorm:"column:status;type:text;not null;default:''"`
	Lead      string `gorm:"column:lead;type:text;not null;default:''"`
	Scope     string `gorm:"column:scope;type:text;not null;default:''"`
	Date      string `gorm:"column:date;type:text;not null;default:''"`
	Findings  int    `gorm:"column:findings;not null;default:0"`
	Obs       int    `gorm:"column:obs;not null;default:0"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (Audit) TableName() string {
	return "audits"
}

type Contractor struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	Name      string `gorm:"column:name;type:text;not null"`
	Category  string `gorm:"column:category;type:text;not null;default:''"`
	Status    string `gorm:"column:status;type:text;not null;default:''"`
	Rating    string `gorm:"column:rating;type:text;not null;default:''"`
	Contact   string `gorm:"column:contact;type:text;not null;default:''"`
	Country   string `gorm:"column:country;type:text;not null;default:''"`
	LastAudit string `gorm:"column:last_audit;type:text;not null;default:''"`
	NextAudit string `gorm:"column:next_audit;type:text;not null;default:''"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (Contractor) TableName() string {
	return "contractors"
}
