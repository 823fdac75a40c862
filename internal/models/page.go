package models

import "strings"

// Page selects which view of the assistant is active
type Page string

const (
	PageHome        Page = "home"
	PageFridge      Page = "fridge"
	PagePreferences Page = "preferences"
	PageRecipes     Page = "recipes"
)

// Pages lists every page in navigation order.
var Pages = []Page{PageHome, PageFridge, PagePreferences, PageRecipes}

// ParsePage validates a page name coming from a client.
func ParsePage(name string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Pages {
		if p == known {
			return p, nil
		}
	}
	return "", Invalid("page", "unknown page %q", name)
}
