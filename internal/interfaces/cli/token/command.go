package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/civiclens/civiclens/internal/infrastructure/auth"
	"github.com/civiclens/civiclens/internal/infrastructure/config"
	"github.com/civiclens/civiclens/internal/shared/authorization"
)

var (
	env     string
	subject string
	role    string
	ttl     time.Duration
)

// NewCommand issues bearer tokens for local testing and service accounts.
// Identity management itself lives outside CivicLens.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Long:  `Sign a JWT for the given subject and role with the configured secret.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "User ID placed in the token subject (required)")
	cmd.Flags().StringVarP(&role, "role", "r", string(authorization.RoleCitizen), "Role: citizen or officer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.jwt.access_exp_minutes)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	r := authorization.UserRole(role)
	if !r.IsValid() {
		return fmt.Errorf("unknown role %q, expected citizen or officer", role)
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc := auth.NewJWTService(cfg.Auth.JWT)

	var token string
	if ttl > 0 {
		token, err = svc.GenerateWithTTL(subject, r, ttl)
	} else {
		token, err = svc.Generate(subject, r)
	}
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
