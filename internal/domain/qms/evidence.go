package qms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EvidenceFile is metadata about an uploaded file. The bytes live elsewhere.
type EvidenceFile struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Size   int64  `json:"size,omitempty"`
	Type   string `json:"type,omitempty"`
	Inline bool   `json:"inline,omitempty"`
}

// AppendEvidence returns a new list with files appended after the existing entries.
func AppendEvidence(list []EvidenceFile, files ...EvidenceFile) []EvidenceFile {
	out := make([]EvidenceFile, 0, len(list)+len(files))
	out = append(out, list...)
	out = append(out, files...)
	return out
}

// RemoveEvidenceAt returns a new list without the entry at index; order of the rest is kept.
func RemoveEvidenceAt(list []EvidenceFile, index int) ([]EvidenceFile, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrEvidenceIndex, index, len(list))
	}
	out := make([]EvidenceFile, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out, nil
}

// LegacyEvidence is the stored shape of evidence, old and new.
// FilesJSON is nil when the list column was never written.
type LegacyEvidence struct {
	FilesJSON *string
	Filename  string
	URL       string
}

// NormalizeEvidence converts either stored shape into the canonical list.
// A present list wins, even when empty; otherwise a legacy single file becomes a one-element list.
func NormalizeEvidence(raw LegacyEvidence) []EvidenceFile {
	if raw.FilesJSON != nil && strings.TrimSpace(*raw.FilesJSON) != "" {
		var files []EvidenceFile
		if err := json.Unmarshal([]byte(*raw.FilesJSON), &files); err == nil {
			return files
		}
		// Unreadable lists fall through to the legacy fields rather than losing evidence.
	}

	if strings.TrimSpace(raw.Filename) == "" {
		return nil
	}
	return []EvidenceFile{{Name: raw.Filename, URL: raw.URL}}
}

// EncodeEvidence is the inverse of NormalizeEvidence for the list column.
func EncodeEvidence(files []EvidenceFile) (string, error) {
	if files == nil {
		files = []EvidenceFile{}
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ContainsEvidence reports whether file is already attached. Entries with a
// URL match on the URL; name-only entries match another name-only entry with
// the same name.
func ContainsEvidence(list []EvidenceFile, file EvidenceFile) bool {
	url := strings.TrimSpace(file.URL)
	name := strings.TrimSpace(file.Name)
	for _, f := range list {
		existing := strings.TrimSpace(f.URL)
		if url != "" {
			if existing == url {
				return true
			}
			continue
		}
		if existing == "" && strings.TrimSpace(f.Name) == name {
			return true
		}
	}
	return false
}
