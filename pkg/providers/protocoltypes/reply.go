package protocoltypes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

type recipeReply struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

// DecodeRecipes parses a model reply into recipes. Markdown code fences around
// the JSON are tolerated. Any decode failure wraps recipe.ErrParse.
func DecodeRecipes(reply string) ([]recipe.Recipe, error) {
	text := StripCodeFence(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", recipe.ErrParse)
	}

	var out recipeReply
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		// models sometimes wrap the object in prose
		start := strings.IndexByte(text, '{')
		end := FindMatchingBrace(text, start)
		if start < 0 || end == start {
			return nil, fmt.Errorf("%w: %v", recipe.ErrParse, err)
		}
		if err2 := json.Unmarshal([]byte(text[start:end]), &out); err2 != nil {
			return nil, fmt.Errorf("%w: %v", recipe.ErrParse, err)
		}
	}

	if out.Recipes == nil {
		return []recipe.Recipe{}, nil
	}
	return out.Recipes, nil
}

// StripCodeFence removes a leading ```json (or bare ```) line and a trailing ```.
func StripCodeFence(reply string) string {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// FindMatchingBrace finds the index after the closing brace matching the
// opening brace at pos. Braces inside JSON strings are skipped. Returns pos
// when there is no match.
func FindMatchingBrace(text string, pos int) int {
	if pos < 0 {
		return pos
	}
	depth := 0
	inString := false
	escaped := false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return pos
}
