package models

// PromptRecord is a single user-authored prompt and the last completion
// the model returned for it.
type PromptRecord struct {
	ID       int64  `json:"id" yaml:"id"`             // Creation time in milliseconds, never changes
	Title    string `json:"title" yaml:"title"`
	Content  string `json:"content" yaml:"content"`   // Rich text serialized as markup
	Response string `json:"response" yaml:"response"` // Raw completion text, empty until one succeeds
}

// AppState is the whole persisted application state: every prompt, newest
// first, plus the current selection. A nil SelectedID means the editor holds
// an unsaved draft.
type AppState struct {
	Prompts    []PromptRecord `json:"prompts" yaml:"prompts"`
	SelectedID *int64         `json:"selectedId" yaml:"selectedId"`
}

// NewAppState returns an empty state with no selection
func NewAppState() AppState {
	return AppState{Prompts: []PromptRecord{}}
}

// Find returns the record with the given id
func (s AppState) Find(id int64) (PromptRecord, bool) {
	for _, p := range s.Prompts {
		if p.ID == id {
			return p, true
		}
	}
	return PromptRecord{}, false
}

// Normalize makes the state safe to use after decoding: a nil prompt list
// becomes empty and a selection pointing at a missing record is cleared.
func (s AppState) Normalize() AppState {
	if s.Prompts == nil {
		s.Prompts = []PromptRecord{}
	}
	if s.SelectedID != nil {
		if _, ok := s.Find(*s.SelectedID); !ok {
			s.SelectedID = nil
		}
	}
	return s
}

// IsSelected reports whether id is the current selection
func (s AppState) IsSelected(id int64) bool {
	return s.SelectedID != nil && *s.SelectedID == id
}

// IDPtr returns a pointer to a copy of id
func IDPtr(id int64) *int64 {
	return &id
}
