package recipe

import (
	"errors"
	"strings"
)

// ErrParse marks a reply from the parsing model that could not be decoded into recipes.
// The retry engine treats it as transient.
var ErrParse = errors.New("recipe: failed to parse model reply")

// nullSentinel is what the parsing model writes for values it could not find.
const nullSentinel = "null"

type VideoMetadata struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         string  `json:"url"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	ChannelName *string `json:"channel_name,omitempty"`
	ChannelURL  string  `json:"channel_url"`
	ChannelIcon *string `json:"channel_icon,omitempty"`
}

type Recipe struct {
	Name        *string      `json:"name"`
	Serving     *string      `json:"serving"`
	Procedure   *string      `json:"procedure"`
	Ingredients []Ingredient `json:"ingredients"`
}

type Ingredient struct {
	Name   string  `json:"name"`
	Amount *string `json:"amount"`
	Group  *string `json:"group"`
}

// Group is a run of ingredients sharing a group name. Name is nil for the
// unnamed default group.
type Group struct {
	Name        *string
	Ingredients []Ingredient
}

// Present reports whether s carries a usable value.
func Present(s *string) bool {
	if s == nil {
		return false
	}
	v := strings.TrimSpace(*s)
	return v != "" && v != nullSentinel
}

// Value returns the string behind s, or "" when it is absent.
func Value(s *string) string {
	if !Present(s) {
		return ""
	}
	return *s
}

// StringPtr is a small helper for building optional fields.
func StringPtr(s string) *string {
	return &s
}

// GroupIngredients buckets ingredients by group, keeping groups in
// first-seen order and ingredients in their original order.
func GroupIngredients(ingredients []Ingredient) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, ing := range ingredients {
		key := ""
		var name *string
		if Present(ing.Group) {
			// prefix keeps a group literally named "" apart from the default group
			key = "g:" + *ing.Group
			name = ing.Group
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Ingredients = append(groups[i].Ingredients, ing)
	}

	return groups
}
