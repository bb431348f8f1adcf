package models

import (
	"encoding/json"
	"time"
)

// List represents a shared task list. The author is always allowed to mutate
// the list; editors are additional user IDs granted the same right.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Editors   []string  `json:"editors"`
	CreatedAt time.Time `json:"createdAt"`

	// Editors serialized for the editors_json column.
	EditorsJSON string `json:"-"`
}

// PrepareForSave marshals the editors slice into the JSON column.
func (l *List) PrepareForSave() {
	if l.Editors == nil {
		l.Editors = []string{}
	}
	data, err := json.Marshal(l.Editors)
	if err != nil {
		l.EditorsJSON = "[]"
		return
	}
	l.EditorsJSON = string(data)
}

// PrepareForAPI unmarshals the JSON column back into the editors slice.
func (l *List) PrepareForAPI() {
	l.Editors = []string{}
	if l.EditorsJSON == "" {
		return
	}
	_ = json.Unmarshal([]byte(l.EditorsJSON), &l.Editors)
}

// HasEditor reports whether the given user ID is in the editors set.
func (l *List) HasEditor(userID string) bool {
	for _, editor := range l.Editors {
		if editor == userID {
			return true
		}
	}
	return false
}
