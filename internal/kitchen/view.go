package kitchen

import (
	"strings"

	"whatsfordinner/internal/models"
	"whatsfordinner/internal/prompts"
	"whatsfordinner/internal/session"
)

// Title is the heading shown on every page.
const Title = "What's for dinner?"

// Empty-state messages.
const (
	EmptyFridgeMessage  = "The fridge is empty, add ingredients now!"
	NoRecipesMessage    = "No recipes generated yet"
	EmptySelectionError = "select at least one ingredient"
)

// DefaultFridgeCapacity is the informational capacity of the fridge gauge.
const DefaultFridgeCapacity = 50

// View is the rendered state of one session. Exactly one page section is set.
type View struct {
	Title        string            `json:"title"`
	Page         models.Page       `json:"page"`
	Nav          []models.Page     `json:"nav"`
	Home         *HomeView         `json:"home,omitempty"`
	Fridge       *FridgeView       `json:"fridge,omitempty"`
	Preferences  *PreferencesView  `json:"preferences,omitempty"`
	Recipes      *RecipesView      `json:"recipes,omitempty"`
	Instructions *InstructionsView `json:"instructions,omitempty"`
	Notice       string            `json:"notice,omitempty"`
}

// Guide is one entry of the home page walkthrough.
type Guide struct {
	Page    models.Page `json:"page"`
	Title   string      `json:"title"`
	Caption string      `json:"caption"`
}

// HomeView is the landing page.
type HomeView struct {
	Guides      []Guide `json:"guides"`
	Ingredients int     `json:"ingredients"`
	Recipes     int     `json:"recipes"`
}

// FridgeView lists the inventory with a capacity gauge.
type FridgeView struct {
	Items    []models.InventoryItem `json:"items"`
	Total    int                    `json:"total"`
	Capacity int                    `json:"capacity"`
	Fill     float64                `json:"fill"`
	Empty    string                 `json:"empty,omitempty"`
}

// PreferencesView shows the current preferences with the catalogs to pick from.
type PreferencesView struct {
	Preferences  models.Preferences   `json:"current"`
	Tools        []string             `json:"tools"`
	CookingTimes []models.CookingTime `json:"cooking_times"`
	QuickNotes   []models.QuickNote   `json:"quick_notes"`
}

// PreferenceSummary is the read-only preferences box on the recipes page.
type PreferenceSummary struct {
	Taste string `json:"taste"`
	Tools string `json:"tools"`
	Time  string `json:"time"`
}

// RecipesView lists the ingredients to choose from and the last suggestions.
type RecipesView struct {
	Summary   PreferenceSummary         `json:"summary"`
	Available []string                  `json:"available"`
	Selected  []string                  `json:"selected"`
	Recipes   []models.RecipeSuggestion `json:"recipes"`
	Empty     string                    `json:"empty,omitempty"`
}

// InstructionsView carries freshly generated directions. They are never stored.
type InstructionsView struct {
	Recipe string `json:"recipe"`
	Text   string `json:"text"`
}

var guides = []Guide{
	{Page: models.PageFridge, Title: "Ingredient Management", Caption: "Track fridge inventory, add or remove ingredients with real-time quantity updates"},
	{Page: models.PageRecipes, Title: "Smart Recipes", Caption: "Generate personalized recipes from available ingredients and preferences, with creative random combinations"},
	{Page: models.PagePreferences, Title: "Preference Settings", Caption: "Customize taste preferences, available kitchenware and cooking time"},
}

// Render builds the view for the session's current page. It reads st and
// never modifies it.
func (c *Controller) Render(st *session.State) View {
	v := View{
		Title: Title,
		Page:  st.Page,
		Nav:   models.Pages,
	}

	switch st.Page {
	case models.PageFridge:
		v.Fridge = renderFridge(st, c.capacity)
	case models.PagePreferences:
		v.Preferences = renderPreferences(st)
	case models.PageRecipes:
		v.Recipes = renderRecipes(st)
	default:
		v.Home = &HomeView{
			Guides:      guides,
			Ingredients: st.Inventory.Len(),
			Recipes:     len(st.Recipes),
		}
	}
	return v
}

func renderFridge(st *session.State, capacity int) *FridgeView {
	if capacity <= 0 {
		capacity = DefaultFridgeCapacity
	}
	total := st.Inventory.Total()
	fill := float64(total) / float64(capacity)
	if fill > 1 {
		fill = 1
	}

	fv := &FridgeView{
		Items:    st.Inventory.Clone().Items,
		Total:    total,
		Capacity: capacity,
		Fill:     fill,
	}
	if st.Inventory.Len() == 0 {
		fv.Empty = EmptyFridgeMessage
	}
	return fv
}

func renderPreferences(st *session.State) *PreferencesView {
	return &PreferencesView{
		Preferences:  st.Preferences.Clone(),
		Tools:        models.ToolCatalog,
		CookingTimes: models.CookingTimes,
		QuickNotes:   models.QuickNotes,
	}
}

func renderRecipes(st *session.State) *RecipesView {
	rv := &RecipesView{
		Summary:   Summarize(st.Preferences),
		Available: st.Inventory.Names(),
		Selected:  append([]string{}, st.Selection...),
		Recipes:   models.CloneRecipes(st.Recipes),
	}
	if len(rv.Recipes) == 0 {
		rv.Empty = NoRecipesMessage
	}
	return rv
}

// Summarize renders preferences for display. Unlike the prompt rendering,
// blank taste notes show as "None".
func Summarize(prefs models.Preferences) PreferenceSummary {
	taste := strings.TrimSpace(prefs.Text)
	if taste == "" {
		taste = "None"
	}
	return PreferenceSummary{
		Taste: taste,
		Tools: prompts.Tools(prefs),
		Time:  string(prefs.CookingTime),
	}
}
