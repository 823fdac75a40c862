package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// DefaultRecipeName is used when the model omits a recipe name.
const DefaultRecipeName = "Recipe"

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// RecipeSuggestion is one dish proposed by the model.
type RecipeSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CloneRecipes copies a recipe list.
func CloneRecipes(recipes []RecipeSuggestion) []RecipeSuggestion {
	out := make([]RecipeSuggestion, len(recipes))
	copy(out, recipes)
	return out
}
