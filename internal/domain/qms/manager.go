package qms

import "strings"

// QualityManagerTitle is the roster role that receives cap_submitted notices.
const QualityManagerTitle = "Quality Manager"

// ResponsibleManager is one roster row. CAR.ResponsibleManager holds a RoleTitle.
type ResponsibleManager struct {
	ID         string `json:"id" toml:"id"`
	RoleTitle  string `json:"role_title" toml:"role_title"`
	PersonName string `json:"person_name" toml:"person_name"`
	Email      string `json:"email" toml:"email"`
}

type Roster []ResponsibleManager

// FindByRoleTitle matches case-insensitively on the trimmed title.
func (r Roster) FindByRoleTitle(title string) (ResponsibleManager, bool) {
	want := strings.TrimSpace(title)
	if want == "" {
		return ResponsibleManager{}, false
	}
	for _, m := range r {
		if strings.EqualFold(strings.TrimSpace(m.RoleTitle), want) {
			return m, true
		}
	}
	return ResponsibleManager{}, false
}

// EmailFor returns the roster e-mail for title, or "".
func (r Roster) EmailFor(title string) string {
	m, ok := r.FindByRoleTitle(title)
	if !ok {
		return ""
	}
	return strings.TrimSpace(m.Email)
}
