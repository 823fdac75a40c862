package models

import "strings"

// CookingTime is a coarse cooking-duration bucket.
type CookingTime string

const (
	CookingTimeAny    CookingTime = "Any"
	CookingTime15Mins CookingTime = "15 mins"
	CookingTime30Mins CookingTime = "30 mins"
	CookingTime1Hour  CookingTime = "1 hour"
	CookingTime90Mins CookingTime = "1.5 hours+"
)

// CookingTimes is the closed set of buckets, in display order.
var CookingTimes = []CookingTime{
	CookingTimeAny,
	CookingTime15Mins,
	CookingTime30Mins,
	CookingTime1Hour,
	CookingTime90Mins,
}

// ToolCatalog is the closed set of kitchen tools a user can select.
var ToolCatalog = []string{"Stovetop", "Oven", "Microwave", "Air Fryer", "Blender"}

// QuickNote is a one-click taste phrase.
type QuickNote struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Phrase string `json:"phrase"`
}

// QuickNotes are the quick-select taste phrases offered on the preferences page.
var QuickNotes = []QuickNote{
	{Key: "spicy", Label: "Spicy", Phrase: "Likes spicy food"},
	{Key: "sweet", Label: "Sweet", Phrase: "Likes sweets"},
	{Key: "healthy", Label: "Healthy", Phrase: "Low oil and salt"},
}

// Preferences captures what the user wants out of a recipe.
type Preferences struct {
	Text        string      `json:"text"`
	Tools       StringSlice `json:"tools"`
	CookingTime CookingTime `json:"cooking_time"`
}

// DefaultPreferences returns the preferences every session starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Text:        "",
		Tools:       StringSlice{},
		CookingTime: CookingTimeAny,
	}
}

// NewPreferences validates a full preferences record. Tools are
// deduplicated and kept in the order given.
func NewPreferences(text string, tools []string, cookingTime string) (Preferences, error) {
	ct, err := ParseCookingTime(cookingTime)
	if err != nil {
		return Preferences{}, err
	}

	selected := make(StringSlice, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		name, ok := catalogTool(tool)
		if !ok {
			return Preferences{}, Invalid("tools", "unknown tool %q", tool)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, name)
	}

	return Preferences{Text: text, Tools: selected, CookingTime: ct}, nil
}

// ParseCookingTime accepts a bucket name; blank means Any.
func ParseCookingTime(value string) (CookingTime, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return CookingTimeAny, nil
	}
	for _, ct := range CookingTimes {
		if strings.EqualFold(string(ct), value) {
			return ct, nil
		}
	}
	return "", Invalid("cooking_time", "unknown cooking time %q", value)
}

// ResolveQuickNote maps a quick-select key to its phrase. Anything else is
// taken as a literal note.
func ResolveQuickNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return "", Invalid("note", "note must not be blank")
	}
	for _, q := range QuickNotes {
		if strings.EqualFold(q.Key, note) {
			return q.Phrase, nil
		}
	}
	return note, nil
}

// AppendNote appends a phrase to the taste notes. Repeated phrases are
// appended again.
func (p *Preferences) AppendNote(phrase string) {
	p.Text += " " + phrase
}

// Valid reports whether the cooking time is one of the known buckets.
func (p Preferences) Valid() bool {
	for _, ct := range CookingTimes {
		if p.CookingTime == ct {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with p.
func (p Preferences) Clone() Preferences {
	tools := make(StringSlice, len(p.Tools))
	copy(tools, p.Tools)
	p.Tools = tools
	return p
}

func catalogTool(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, tool := range ToolCatalog {
		if strings.EqualFold(tool, name) {
			return tool, true
		}
	}
	return "", false
}
