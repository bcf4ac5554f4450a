package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/domain"
)

var (
	flagStaffID   string
	flagStaffName string
	flagAvatar    string
	flagTTLMin    int
)

// tokenCmd mints a panel token for a Discord user. The staff role is still
// checked on every request.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a panel JWT (HS256) for a staff member",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is empty")
		}
		ttl := flagTTLMin
		if ttl <= 0 {
			ttl = cfg.Auth.AccessTokenTTLMinutes
		}
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl)
		token, expiresAt, err := tokens.GenerateToken(domain.StaffMember{
			ID:          flagStaffID,
			DisplayName: flagStaffName,
			AvatarRef:   flagAvatar,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&flagStaffID, "staff-id", "", "Discord user id of the staff member")
	tokenCmd.Flags().StringVar(&flagStaffName, "name", "", "display name shown on replies")
	tokenCmd.Flags().StringVar(&flagAvatar, "avatar", "", "avatar url shown on replies")
	tokenCmd.Flags().IntVar(&flagTTLMin, "ttl", 0, "token time-to-live in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = tokenCmd.MarkFlagRequired("staff-id")
}
