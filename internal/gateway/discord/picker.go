package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

const (
	pickerContent     = "Click below to create a new ticket"
	pickerPlaceholder = "Select a ticket category"
)

// maxSelectOptions is Discord's limit on options per select menu.
const maxSelectOptions = 25

// PostCategoryPicker posts the ticket category select menu to channelID.
func (c *Client) PostCategoryPicker(ctx context.Context, channelID string, categories []domain.Category) (*discordgo.Message, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("discord: no categories to offer")
	}
	if len(categories) > maxSelectOptions {
		return nil, fmt.Errorf("discord: %d categories exceed the %d option limit", len(categories), maxSelectOptions)
	}

	options := make([]discordgo.SelectMenuOption, 0, len(categories))
	for _, category := range categories {
		options = append(options, discordgo.SelectMenuOption{Label: category.Name, Value: category.ID})
	}

	return c.SendMessage(ctx, channelID, &discordgo.MessageSend{
		Content: pickerContent,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    CreateTicketCustomID,
					Placeholder: pickerPlaceholder,
					Options:     options,
				},
			}},
		},
	})
}

// ReplyEphemeral answers an interaction with a message only the invoker sees.
func (c *Client) ReplyEphemeral(ctx context.Context, interaction Interaction, content string) error {
	return c.RespondToInteraction(ctx, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
