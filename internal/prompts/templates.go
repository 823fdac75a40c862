package prompts

// Prompt text lives here so wording changes are a single-file edit.
// Templates use Go template syntax; the JSON example must never contain a
// doubled brace.

// RecipeListSystem frames the model for the recipe-list call.
const RecipeListSystem = "Professional chef returning recipes in JSON"

// CreativeClause is appended to the recipe-list request in creative mode.
const CreativeClause = " Add creative and unexpected combinations!"

const recipeListTemplate = `
You are a professional chef, and the user has provided these ingredients: {{.ingredients}}.
Preferences:
- Taste: {{.taste}}
- Tools: {{.tools}}
- Time: {{.time}}

Please list {{.count}} delicious dishes.{{.creative}}
Return in JSON format:
{
  "recipes": [
    {"name": "Recipe1", "description": "Short description"},
    {"name": "Recipe2", "description": "Short description"}
  ]
}
`

const instructionsTemplate = `
Create detailed instructions for: {{.recipe}}
Ingredients: {{.ingredients}}
Preferences:
- Taste: {{.taste}}
- Tools: {{.tools}}
- Time: {{.time}}

Include:
1. Ingredients preparation
2. Step-by-step instructions
3. Cooking tips
`
