// Package prompts turns fridge contents and preferences into completion
// prompts and turns completion replies back into recipe suggestions.
package prompts

import (
	"fmt"
	"strings"

	lcprompts "github.com/tmc/langchaingo/prompts"

	"whatsfordinner/internal/models"
)

// Fallback renderings for empty preference fields.
const (
	NoTastePreference = "No special preferences"
	AnyTools          = "Any"
	FlexibleTime      = "Flexible"
)

var (
	recipeListPrompt = lcprompts.NewPromptTemplate(recipeListTemplate,
		[]string{"ingredients", "taste", "tools", "time", "count", "creative"})
	instructionsPrompt = lcprompts.NewPromptTemplate(instructionsTemplate,
		[]string{"recipe", "ingredients", "taste", "tools", "time"})
)

// RecipeList builds the prompt asking for count dishes made from
// ingredients. The output is deterministic for the same inputs.
func RecipeList(ingredients []string, prefs models.Preferences, count int, creative bool) (string, error) {
	values := preferenceValues(prefs)
	values["ingredients"] = strings.Join(ingredients, ", ")
	values["count"] = count
	values["creative"] = ""
	if creative {
		values["creative"] = CreativeClause
	}

	prompt, err := recipeListPrompt.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to format recipe list prompt: %w", err)
	}
	return prompt, nil
}

// Instructions builds the prompt asking for step-by-step directions for a
// single recipe.
func Instructions(recipeName string, ingredients []string, prefs models.Preferences) (string, error) {
	values := preferenceValues(prefs)
	values["recipe"] = recipeName
	values["ingredients"] = strings.Join(ingredients, ", ")

	prompt, err := instructionsPrompt.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to format instructions prompt: %w", err)
	}
	return prompt, nil
}

// Taste renders the taste notes for a prompt.
func Taste(prefs models.Preferences) string {
	if text := strings.TrimSpace(prefs.Text); text != "" {
		return text
	}
	return NoTastePreference
}

// Tools renders the selected tools for a prompt.
func Tools(prefs models.Preferences) string {
	if len(prefs.Tools) == 0 {
		return AnyTools
	}
	return strings.Join(prefs.Tools, ", ")
}

// Time renders the cooking-time bucket for a prompt.
func Time(prefs models.Preferences) string {
	if prefs.CookingTime == "" || prefs.CookingTime == models.CookingTimeAny {
		return FlexibleTime
	}
	return string(prefs.CookingTime)
}

func preferenceValues(prefs models.Preferences) map[string]interface{} {
	return map[string]interface{}{
		"taste": Taste(prefs),
		"tools": Tools(prefs),
		"time":  Time(prefs),
	}
}
