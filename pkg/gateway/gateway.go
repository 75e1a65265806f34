package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
)

type Kind string

const (
	KindPong           Kind = "pong"
	KindReply          Kind = "reply"
	KindAccepted       Kind = "accepted"
	KindValidation     Kind = "validation"
	KindBadRequest     Kind = "bad_request"
	KindInvalidPayload Kind = "invalid_payload"
	KindInternal       Kind = "internal"
)

// Outcome is what the HTTP layer writes back. Response is nil for plain-text
// rejections, where Message is the body.
type Outcome struct {
	Status   int
	Response *discordgo.InteractionResponse
	Message  string
	Kind     Kind
}

func validation(msg string) Outcome {
	return Outcome{
		Status:   http.StatusOK,
		Kind:     KindValidation,
		Message:  msg,
		Response: discord.MessageResponse(msg, true),
	}
}

func badRequest(kind Kind, msg string) Outcome {
	return Outcome{Status: http.StatusBadRequest, Kind: kind, Message: msg}
}

// CommandGateway routes verified interaction payloads.
type CommandGateway struct {
	appID    string
	commands *Commands
}

func NewCommandGateway(appID string, commands *Commands) *CommandGateway {
	return &CommandGateway{appID: appID, commands: commands}
}

func (g *CommandGateway) Commands() *Commands { return g.commands }

func (g *CommandGateway) Route(ctx context.Context, rawBody []byte) Outcome {
	out := g.route(ctx, rawBody)
	metrics.RecordInteraction(string(out.Kind), strconv.Itoa(out.Status))
	return out
}

func (g *CommandGateway) route(ctx context.Context, rawBody []byte) Outcome {
	var i discordgo.Interaction
	if err := json.Unmarshal(rawBody, &i); err != nil {
		logger.WarnCF("gateway", "Invalid interaction payload", map[string]any{"error": err.Error()})
		return badRequest(KindInvalidPayload, "Invalid interaction object")
	}
	if g.appID != "" && i.AppID != g.appID {
		logger.WarnCF("gateway", "Interaction for another application", map[string]any{"app_id": i.AppID})
		return badRequest(KindInvalidPayload, "Invalid application ID")
	}

	logger.InfoCF("gateway", "Received interaction", map[string]any{
		"id":   i.ID,
		"type": i.Type.String(),
	})

	switch i.Type {
	case discordgo.InteractionPing:
		return Outcome{Status: http.StatusOK, Kind: KindPong, Response: discord.PongResponse()}
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.CommandType != discordgo.ChatApplicationCommand {
			return badRequest(KindBadRequest, "Invalid Application Command type.")
		}
		cmd, ok := g.commands.Lookup(data.Name)
		if !ok || cmd.Handler == nil {
			return badRequest(KindBadRequest, fmt.Sprintf("Command %s is not implemented.", data.Name))
		}
		logger.InfoCF("gateway", "Dispatching command", map[string]any{"command": data.Name})
		return cmd.Handler(ctx, &i)
	default:
		return badRequest(KindBadRequest, "Invalid interaction type.")
	}
}
