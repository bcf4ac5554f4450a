package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/gateway/discord"
)

var flagPickerChannel string

// pickerCmd posts the category picker requesters use to open tickets.
var pickerCmd = &cobra.Command{
	Use:   "picker",
	Short: "Post the ticket category picker to a Discord channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		channelID := flagPickerChannel
		if channelID == "" {
			channelID = cfg.Discord.TicketChannelID
		}
		if channelID == "" {
			return fmt.Errorf("no channel: pass --channel or set DISCORD_TICKET_CHANNEL_ID")
		}

		client, err := discord.NewClient(discord.ClientConfig{
			Token:          cfg.Discord.BotToken,
			MaxRestRetries: cfg.Discord.MaxRestRetries,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		msg, err := client.PostCategoryPicker(cmd.Context(), channelID, cfg.Catalog.Categories)
		if err != nil {
			return err
		}
		logger.Info("category picker posted", zap.String("channel_id", channelID), zap.String("message_id", msg.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pickerCmd)
	pickerCmd.Flags().StringVar(&flagPickerChannel, "channel", "", "channel id (default DISCORD_TICKET_CHANNEL_ID)")
}
