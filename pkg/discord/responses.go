package discord

import "github.com/bwmarrin/discordgo"

func PongResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

func MessageResponse(content string, ephemeral bool) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// EphemeralFollowup is a follow-up only the invoking user can see.
func EphemeralFollowup(content string) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func EmbedFollowup(embed *discordgo.MessageEmbed) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
}
