package providers

import (
	"context"

	"github.com/zhaopengme/recipeclaw/pkg/providers/protocoltypes"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

// RecipeParser turns a free-form video description into recipes. A reply that
// cannot be decoded is reported as recipe.ErrParse.
type RecipeParser interface {
	ParseRecipes(ctx context.Context, description string) ([]recipe.Recipe, error)
	Name() string
	Model() string
}

type ProviderError = protocoltypes.ProviderError
type ErrorReason = protocoltypes.ErrorReason
