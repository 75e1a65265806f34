package followup

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

const (
	// MaxEmbedFields is Discord's per-embed field limit.
	MaxEmbedFields = 25

	EmbedColor     = 15409955
	groupSeparator = "--------------------"
	servingLabel   = "分量:"

	// Discord rejects empty field names and values.
	blankField = "\u200b"
)

// Fragment is one follow-up message carrying a single recipe embed.
type Fragment struct {
	Embed *discordgo.MessageEmbed
}

func (f Fragment) Params() *discordgo.WebhookParams {
	return discord.EmbedFollowup(f.Embed)
}

// Compile builds one fragment per recipe, in recipe order. Recipes whose
// ingredient list would overflow the field limit get it in the description.
func Compile(meta recipe.VideoMetadata, recipes []recipe.Recipe) []Fragment {
	fragments := make([]Fragment, 0, len(recipes))
	for i, r := range recipes {
		fragments = append(fragments, Fragment{Embed: compileEmbed(meta, r, i, len(recipes))})
	}
	return fragments
}

func compileEmbed(meta recipe.VideoMetadata, r recipe.Recipe, index, total int) *discordgo.MessageEmbed {
	var desc strings.Builder
	if recipe.Present(r.Name) {
		fmt.Fprintf(&desc, "**%s**\n", *r.Name)
	}
	if recipe.Present(r.Serving) {
		fmt.Fprintf(&desc, "**%s** %s\n", servingLabel, *r.Serving)
	}
	if recipe.Present(r.Procedure) {
		desc.WriteString("\n")
		desc.WriteString(*r.Procedure)
		desc.WriteString("\n")
	}

	groups := recipe.GroupIngredients(r.Ingredients)

	var fields []*discordgo.MessageEmbedField
	if len(r.Ingredients)+len(groups) > MaxEmbedFields {
		writeIngredientBlocks(&desc, groups)
	} else {
		fields = ingredientFields(groups)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title(meta, index, total),
		Description: desc.String(),
		URL:         meta.URL,
		Color:       EmbedColor,
		Fields:      fields,
	}
	if recipe.Present(meta.Thumbnail) {
		embed.Image = &discordgo.MessageEmbedImage{URL: *meta.Thumbnail}
	}
	if recipe.Present(meta.ChannelName) {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    *meta.ChannelName,
			URL:     meta.ChannelURL,
			IconURL: recipe.Value(meta.ChannelIcon),
		}
	}
	return embed
}

func title(meta recipe.VideoMetadata, index, total int) string {
	t := recipe.Value(meta.Title)
	if total > 1 {
		t = fmt.Sprintf("%s (%d/%d)", t, index+1, total)
	}
	return t
}

func writeIngredientBlocks(desc *strings.Builder, groups []recipe.Group) {
	for _, g := range groups {
		desc.WriteString("\n\n")
		if g.Name != nil {
			fmt.Fprintf(desc, "**%s**\n", *g.Name)
		}
		desc.WriteString(groupSeparator)
		desc.WriteString("\n")

		lines := make([]string, 0, len(g.Ingredients))
		for _, ing := range g.Ingredients {
			lines = append(lines, fmt.Sprintf("**%s:** %s", ing.Name, recipe.Value(ing.Amount)))
		}
		desc.WriteString(strings.Join(lines, "\n"))
	}
}

func ingredientFields(groups []recipe.Group) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, g := range groups {
		header := blankField
		if g.Name != nil {
			header = *g.Name
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: header, Value: groupSeparator})

		for _, ing := range g.Ingredients {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   nonEmpty(ing.Name),
				Value:  nonEmpty(recipe.Value(ing.Amount)),
				Inline: true,
			})
		}
		// row break before the next group
		fields[len(fields)-1].Inline = false
	}
	if len(fields) > 0 {
		fields[len(fields)-1].Inline = true
	}
	return fields
}

func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return blankField
	}
	return s
}
