package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"whatsfordinner/internal/models"
)

// ParseRecipeList extracts recipe suggestions from a completion reply.
//
// The reply must be a JSON object with a "recipes" array, optionally wrapped
// in a Markdown code fence. Anything else yields an empty slice and a
// *models.ParseError. Elements that are not objects are skipped. Names are
// trimmed, and a missing, null or blank name becomes models.DefaultRecipeName.
// A missing description becomes "". Numbers and booleans in either field are kept as their JSON text.
func ParseRecipeList(raw string) ([]models.RecipeSuggestion, error) {
	recipes := []models.RecipeSuggestion{}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &envelope); err != nil {
		return recipes, &models.ParseError{Err: fmt.Errorf("reply is not a JSON object: %w", err)}
	}

	list, ok := envelope["recipes"]
	if !ok {
		return recipes, &models.ParseError{Err: errors.New(`reply has no "recipes" key`)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil || items == nil {
		return recipes, &models.ParseError{Err: errors.New(`"recipes" is not an array`)}
	}

	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			continue
		}
		name := strings.TrimSpace(stringField(fields, "name", ""))
		if name == "" {
			name = models.DefaultRecipeName
		}
		recipes = append(recipes, models.RecipeSuggestion{
			Name:        name,
			Description: stringField(fields, "description", ""),
		})
	}
	return recipes, nil
}

// StripCodeFence removes a ```json ... ``` wrapper that models like to add.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string ("json") on the opening line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stringField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprint(b)
	}
	return fallback
}
