package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
)

const (
	CommandRecipe = "recipe"
	CommandHelp   = "recipe-help"
	OptionURL     = "url"
)

// HandlerFunc serves one application command.
type HandlerFunc func(ctx context.Context, i *discordgo.Interaction) Outcome

type Command struct {
	Definition *discordgo.ApplicationCommand
	Handler    HandlerFunc
}

// Commands is the ordered command catalog. Registration and routing both
// read from it.
type Commands struct {
	ordered []Command
	byName  map[string]int
}

func NewCommands(cmds ...Command) *Commands {
	c := &Commands{byName: make(map[string]int, len(cmds))}
	for _, cmd := range cmds {
		c.byName[cmd.Definition.Name] = len(c.ordered)
		c.ordered = append(c.ordered, cmd)
	}
	return c
}

func (c *Commands) Lookup(name string) (Command, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Command{}, false
	}
	return c.ordered[i], true
}

func (c *Commands) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(c.ordered))
	for _, cmd := range c.ordered {
		defs = append(defs, cmd.Definition)
	}
	return defs
}

// Catalog returns the bot's commands with handlers bound to t.
func Catalog(t *Trigger) *Commands {
	help := Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        CommandHelp,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Show the help message for the Recipe Extractor Bot.",
		},
	}
	recipe := Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        CommandRecipe,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Extract the recipe from a video URL.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        OptionURL,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The URL of the video you want to extract the recipe from.",
					Required:    true,
				},
			},
		},
		Handler: func(ctx context.Context, i *discordgo.Interaction) Outcome {
			url, ok := stringOption(i.ApplicationCommandData().Options, OptionURL)
			if !ok {
				return validation("No URL option provided.")
			}
			return t.Trigger(ctx, url, i.Token)
		},
	}

	cmds := NewCommands(help, recipe)
	text := helpText(cmds)
	cmds.ordered[cmds.byName[CommandHelp]].Handler = func(context.Context, *discordgo.Interaction) Outcome {
		return Outcome{
			Status:   http.StatusOK,
			Kind:     KindReply,
			Message:  text,
			Response: discord.MessageResponse(text, true),
		}
	}
	return cmds
}

func helpText(cmds *Commands) string {
	lines := make([]string, 0, len(cmds.ordered))
	for _, d := range cmds.Definitions() {
		lines = append(lines, fmt.Sprintf("`/%s` - %s", d.Name, d.Description))
	}

	var b strings.Builder
	b.WriteString("**Recipe Extractor Bot**\n")
	b.WriteString("Extract recipes from URLs.\n\n")
	b.WriteString("**Commands**\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n**Available URLs**\n")
	b.WriteString("- YouTube: `https://www.youtube.com/watch?v=video_id`\n\n")
	b.WriteString("**Example**\n")
	b.WriteString("`/recipe https://www.youtube.com/watch?v=video_id`\n\n")
	b.WriteString("**Note**\n")
	b.WriteString("- The bot uses a language model for recipe extraction.\n")
	b.WriteString("- The bot is not responsible for the content extracted from URLs.")
	return b.String()
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	for _, o := range opts {
		if o == nil || o.Name != name || o.Type != discordgo.ApplicationCommandOptionString {
			continue
		}
		v, ok := o.Value.(string)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}
	return "", false
}
