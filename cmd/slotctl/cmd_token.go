package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timeslots-api/internal/models"
	"github.com/noah-isme/timeslots-api/internal/service"
)

func newTokenCmd(opts *cliOptions) *cobra.Command {
	var (
		secret, issuer, audience string
		subject, role            string
		ttl                      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for calling mutating API routes locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(strings.ToUpper(role))
			switch r {
			case models.RoleAdmin, models.RoleScheduler, models.RoleViewer:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			tokens := service.NewTokenService(service.TokenConfig{Secret: secret, Issuer: issuer, Audience: audience}, opts.logger)
			token, err := tokens.IssueToken(subject, r, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (JWT_SECRET of the API)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer")
	cmd.Flags().StringVar(&audience, "audience", "", "Token audience")
	cmd.Flags().StringVar(&subject, "subject", "slotctl", "User id carried in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleScheduler), "ADMIN, SCHEDULER or VIEWER")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}
