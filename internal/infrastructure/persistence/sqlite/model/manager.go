package model

type ResponsibleManager struct {
	ID         string `gorm:"column:id;type:text;primaryKey"`
	RoleTitle  string `gorm:"column:role_title;type:text;not null;uniqueIndex"`
	PersonName string `gorm:"column:person_name;type:text;not null;default:''"`
	Email      string `gorm:"column:email;type:text;not null;default:''"`
}

func (ResponsibleManager) TableName() string {
	return "responsible_managers"
}
