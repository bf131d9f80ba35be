package domain

// FilterCondition is a conjunction of independently optional predicates.
// A zero-value condition (and a nil *FilterCondition) matches every record.
//
// Fields:
//   - Levels: accepted severities; empty accepts all.
//   - TagInclude: substring the tag must contain.
//   - TagExclude: substring the tag must not contain.
//   - PIDs: accepted process ids; empty accepts all.
//   - Text: case-insensitive substring matched against message, tag and raw
//     line; a hit on any of the three accepts.
//   - Regex: pattern matched against raw line or message; a pattern that
//     fails to compile accepts everything so the operator is not blocked
//     while still typing it.
type FilterCondition struct {
	Levels     []Level `json:"levels,omitempty" yaml:"levels,omitempty"`
	TagInclude string  `json:"tagInclude,omitempty" yaml:"tag_include,omitempty"`
	TagExclude string  `json:"tagExclude,omitempty" yaml:"tag_exclude,omitempty"`
	PIDs       []int   `json:"pids,omitempty" yaml:"pids,omitempty"`
	Text       string  `json:"text,omitempty" yaml:"text,omitempty"`
	Regex      string  `json:"regex,omitempty" yaml:"regex,omitempty"`
}

// IsEmpty returns true if no predicates are set.
func (c *FilterCondition) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Levels) == 0 && c.TagInclude == "" && c.TagExclude == "" &&
		len(c.PIDs) == 0 && c.Text == "" && c.Regex == ""
}

// Clone returns a deep copy so callers can mutate a condition without
// affecting the one the session is matching against.
func (c *FilterCondition) Clone() *FilterCondition {
	if c == nil {
		return nil
	}
	out := *c
	if len(c.Levels) > 0 {
		out.Levels = append([]Level(nil), c.Levels...)
	}
	if len(c.PIDs) > 0 {
		out.PIDs = append([]int(nil), c.PIDs...)
	}
	return &out
}

// FilterPreset is a named, persisted FilterCondition.
//
// Enabled is reserved; all stored presets are currently selectable
// regardless of the flag.
type FilterPreset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Enabled   bool            `json:"enabled"`
	Condition FilterCondition `json:"condition"`
}
