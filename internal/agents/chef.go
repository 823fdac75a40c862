// Package agents holds the model-backed chef that proposes dishes and
// writes cooking directions.
package agents

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/models"
	"whatsfordinner/internal/models/providers"
	"whatsfordinner/internal/monitoring"
	"whatsfordinner/internal/prompts"
)

// Call kinds used as metric labels.
const (
	CallRecipes      = "recipes"
	CallInstructions = "instructions"
)

// Sampling settings for each call kind.
const (
	RecipeListMaxTokens           = 800
	RecipeListTemperature         = 0.6
	CreativeRecipeListTemperature = 0.8
	InstructionsMaxTokens         = 1000
	InstructionsTemperature       = 0.7
)

// DefaultRecipeCount is how many dishes are requested per generation.
const DefaultRecipeCount = 5

// ErrNoRecipes is wrapped in a ParseError when a reply parses but lists no dishes.
var ErrNoRecipes = errors.New("no recipes in response")

// Chef turns fridge contents and preferences into completion calls.
// It holds no per-session state and is safe for concurrent use.
type Chef struct {
	completer   providers.Completer
	recipeCount int
	metrics     *monitoring.Metrics
	monitor     *monitoring.Monitor
	log         logrus.FieldLogger
}

// NewChef creates a chef; recipeCount <= 0 selects DefaultRecipeCount.
func NewChef(completer providers.Completer, recipeCount int, metrics *monitoring.Metrics, monitor *monitoring.Monitor, log logrus.FieldLogger) *Chef {
	if recipeCount <= 0 {
		recipeCount = DefaultRecipeCount
	}
	return &Chef{
		completer:   completer,
		recipeCount: recipeCount,
		metrics:     metrics,
		monitor:     monitor,
		log:         log,
	}
}

// RecipeCount returns the number of dishes requested per generation.
func (c *Chef) RecipeCount() int {
	return c.recipeCount
}

// SuggestRecipes asks the model for dishes built from ingredients. A reply
// that cannot be parsed, or that lists no dishes, yields a *models.ParseError.
func (c *Chef) SuggestRecipes(ctx context.Context, ingredients []string, prefs models.Preferences, creative bool) ([]models.RecipeSuggestion, error) {
	prompt, err := prompts.RecipeList(ingredients, prefs, c.recipeCount, creative)
	if err != nil {
		return nil, err
	}

	temperature := RecipeListTemperature
	if creative {
		temperature = CreativeRecipeListTemperature
	}

	start := time.Now()
	reply, err := c.completer.Complete(ctx, providers.SystemPrompt(prompts.RecipeListSystem, prompt), RecipeListMaxTokens, temperature)
	elapsed := time.Since(start)
	c.metrics.ObserveCompletion(CallRecipes, elapsed, err)
	if err != nil {
		c.finish(CallRecipes, elapsed, err)
		return nil, err
	}

	recipes, err := prompts.ParseRecipeList(reply)
	if err == nil && len(recipes) == 0 {
		err = &models.ParseError{Err: ErrNoRecipes}
	}
	if err != nil {
		c.metrics.RecordParseFailure()
		c.finish(CallRecipes, elapsed, err)
		return nil, err
	}

	c.finish(CallRecipes, elapsed, nil)
	c.log.WithFields(logrus.Fields{
		"ingredients": len(ingredients),
		"recipes":     len(recipes),
		"creative":    creative,
	}).Info("recipes generated")
	return recipes, nil
}

// Instructions asks the model for preparation steps for one dish.
func (c *Chef) Instructions(ctx context.Context, recipe string, ingredients []string, prefs models.Preferences) (string, error) {
	prompt, err := prompts.Instructions(recipe, ingredients, prefs)
	if err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := c.completer.Complete(ctx, providers.UserPrompt(prompt), InstructionsMaxTokens, InstructionsTemperature)
	elapsed := time.Since(start)
	c.metrics.ObserveCompletion(CallInstructions, elapsed, err)
	c.finish(CallInstructions, elapsed, err)
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Chef) finish(call string, elapsed time.Duration, err error) {
	kind := models.ErrorKind(err)
	c.monitor.RecordCompletion(call, elapsed, kind)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"call":    call,
			"outcome": kind,
		}).Warn("completion did not produce a result")
	}
}
