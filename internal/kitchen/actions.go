package kitchen

import (
	"context"
	"fmt"
	"strings"

	"whatsfordinner/internal/models"
	"whatsfordinner/internal/session"
)

// ActionType names a user action.
type ActionType string

const (
	ActionView            ActionType = "view"
	ActionNavigate        ActionType = "navigate"
	ActionAddIngredient   ActionType = "add_ingredient"
	ActionIncrement       ActionType = "increment_ingredient"
	ActionDecrement       ActionType = "decrement_ingredient"
	ActionSavePreferences ActionType = "save_preferences"
	ActionQuickNote       ActionType = "quick_note"
	ActionGenerate        ActionType = "generate_recipes"
	ActionInstructions    ActionType = "view_instructions"
)

// Action is one user action with its parameters. Only the fields relevant
// to Type are read.
type Action struct {
	Type        ActionType `json:"action"`
	Page        string     `json:"page,omitempty"`
	Name        string     `json:"name,omitempty"`
	Quantity    int        `json:"quantity,omitempty"`
	Text        string     `json:"text,omitempty"`
	Tools       []string   `json:"tools,omitempty"`
	CookingTime string     `json:"cooking_time,omitempty"`
	Note        string     `json:"note,omitempty"`
	Ingredients []string   `json:"ingredients,omitempty"`
	Creative    bool       `json:"creative,omitempty"`
	Recipe      string     `json:"recipe,omitempty"`
}

// Navigate switches the active page.
func Navigate(st *session.State, page string) error {
	p, err := models.ParsePage(page)
	if err != nil {
		return err
	}
	st.Page = p
	return nil
}

// AddIngredient sets the quantity of an ingredient, adding it if needed.
func AddIngredient(st *session.State, name string, quantity int) error {
	return st.Inventory.Set(name, quantity)
}

// IncrementIngredient adds one unit of an ingredient already in the fridge.
func IncrementIngredient(st *session.State, name string) error {
	return st.Inventory.Increment(name)
}

// DecrementIngredient removes one unit; the last unit removes the entry.
func DecrementIngredient(st *session.State, name string) error {
	return st.Inventory.Decrement(name)
}

// SavePreferences replaces the preferences wholesale and returns home.
func SavePreferences(st *session.State, text string, tools []string, cookingTime string) error {
	prefs, err := models.NewPreferences(text, tools, cookingTime)
	if err != nil {
		return err
	}
	st.Preferences = prefs
	st.Page = models.PageHome
	return nil
}

// QuickAddPreferenceNote appends a quick-select phrase (or literal note) to
// the taste notes. The same phrase may be appended more than once.
func QuickAddPreferenceNote(st *session.State, note string) error {
	phrase, err := models.ResolveQuickNote(note)
	if err != nil {
		return err
	}
	st.Preferences.AppendNote(phrase)
	return nil
}

// GenerateRecipes asks the chef for dishes made from the selected
// ingredients. On success the recipe list is replaced and the selection
// remembered; on failure the session is left as it was.
func (c *Controller) GenerateRecipes(ctx context.Context, st *session.State, ingredients []string, creative bool) error {
	selected, err := selectIngredients(st, ingredients)
	if err != nil {
		return err
	}

	recipes, err := c.chef.SuggestRecipes(ctx, selected, st.Preferences.Clone(), creative)
	if err != nil {
		return err
	}
	st.Recipes = recipes
	st.Selection = selected
	return nil
}

// ViewInstructions generates directions for a recipe in the current list.
// Without an explicit selection it uses the one from the last generation,
// then the whole fridge.
func (c *Controller) ViewInstructions(ctx context.Context, st *session.State, recipe string, ingredients []string) (*InstructionsView, error) {
	name := strings.TrimSpace(recipe)
	if name == "" {
		return nil, models.Invalid("recipe", "recipe name must not be blank")
	}
	if !hasRecipe(st.Recipes, name) {
		return nil, models.Invalid("recipe", "recipe %q is not in the current list", name)
	}

	var selected []string
	switch {
	case len(ingredients) > 0:
		var err error
		if selected, err = selectIngredients(st, ingredients); err != nil {
			return nil, err
		}
	case len(st.Selection) > 0:
		selected = append([]string{}, st.Selection...)
	default:
		selected = st.Inventory.Names()
	}

	text, err := c.chef.Instructions(ctx, name, selected, st.Preferences.Clone())
	if err != nil {
		return nil, err
	}
	return &InstructionsView{Recipe: name, Text: text}, nil
}

// apply runs one action against st. Handlers validate before mutating.
func (c *Controller) apply(ctx context.Context, st *session.State, a Action) (*InstructionsView, string, error) {
	switch a.Type {
	case ActionView:
		return nil, "", nil
	case ActionNavigate:
		return nil, "", Navigate(st, a.Page)
	case ActionAddIngredient:
		if err := AddIngredient(st, a.Name, a.Quantity); err != nil {
			return nil, "", err
		}
		return nil, fmt.Sprintf("Added %s x%d", strings.TrimSpace(a.Name), a.Quantity), nil
	case ActionIncrement:
		return nil, "", IncrementIngredient(st, a.Name)
	case ActionDecrement:
		return nil, "", DecrementIngredient(st, a.Name)
	case ActionSavePreferences:
		if err := SavePreferences(st, a.Text, a.Tools, a.CookingTime); err != nil {
			return nil, "", err
		}
		return nil, "Preferences saved!", nil
	case ActionQuickNote:
		return nil, "", QuickAddPreferenceNote(st, a.Note)
	case ActionGenerate:
		if err := c.GenerateRecipes(ctx, st, a.Ingredients, a.Creative); err != nil {
			return nil, "", err
		}
		return nil, fmt.Sprintf("Generated %d recipes", len(st.Recipes)), nil
	case ActionInstructions:
		iv, err := c.ViewInstructions(ctx, st, a.Recipe, a.Ingredients)
		return iv, "", err
	default:
		return nil, "", models.Invalid("action", "unknown action %q", a.Type)
	}
}

func selectIngredients(st *session.State, ingredients []string) ([]string, error) {
	selected := make([]string, 0, len(ingredients))
	seen := make(map[string]bool, len(ingredients))
	for _, name := range ingredients {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		if !st.Inventory.Has(name) {
			return nil, models.Invalid("ingredients", "ingredient %q is not in the fridge", name)
		}
		seen[name] = true
		selected = append(selected, name)
	}
	if len(selected) == 0 {
		return nil, models.Invalid("ingredients", EmptySelectionError)
	}
	return selected, nil
}

func hasRecipe(recipes []models.RecipeSuggestion, name string) bool {
	for _, r := range recipes {
		if strings.TrimSpace(r.Name) == name {
			return true
		}
	}
	return false
}
