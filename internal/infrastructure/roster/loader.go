package roster

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"aeroqualify/internal/domain/qms"
)

type rosterFile struct {
	Version  int                      `toml:"version"`
	Managers []qms.ResponsibleManager `toml:"managers"`
}

// LoadFile reads a responsible-managers roster:
//
//	version = 1
//	[[managers]]
//	role_title = "Quality Manager"
//	person_name = "A. Pilot"
//	email = "qm@example.com"
func LoadFile(path string) (qms.Roster, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("roster file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (qms.Roster, error) {
	var file rosterFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != 0 && file.Version != 1 {
		return nil, fmt.Errorf("unsupported roster version %d: expected version = 1", file.Version)
	}

	seen := make(map[string]struct{}, len(file.Managers))
	out := make(qms.Roster, 0, len(file.Managers))
	for i, m := range file.Managers {
		m.RoleTitle = strings.TrimSpace(m.RoleTitle)
		m.PersonName = strings.TrimSpace(m.PersonName)
		m.Email = strings.TrimSpace(m.Email)
		if m.RoleTitle == "" {
			return nil, fmt.Errorf("managers[%d].role_title is required", i)
		}
		key := strings.ToLower(m.RoleTitle)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("managers[%d]: duplicate role_title %q", i, m.RoleTitle)
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
