package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/validation"
)

func (c *CLI) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Log in to, register with, and log out of the storefront API.`,
	}

	cmd.AddCommand(c.newAuthLoginCmd())
	cmd.AddCommand(c.newAuthRegisterCmd())
	cmd.AddCommand(c.newAuthStatusCmd())
	cmd.AddCommand(c.newAuthLogoutCmd())

	return cmd
}

func (c *CLI) newAuthLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token",
		Long: `Log in with email and password. The token returned by the API is kept in
the session store and used by every later command.

Missing values are prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "auth.login", func(ctx context.Context, rec *actionRecord) error {
				return c.runAuthLogin(ctx, rec, email, password)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *CLI) runAuthLogin(ctx context.Context, rec *actionRecord, email, password string) error {
	var err error
	if email == "" {
		if email, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	if err := validation.Struct(validation.LoginRequest{Email: email, Password: password}); err != nil {
		return err
	}

	client, err := c.newRemoteClient(ctx, false)
	if err != nil {
		return err
	}
	token, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Save(ctx, token); err != nil {
		return err
	}

	claims := auth.Inspect(token)
	rec.Customer = claims.CustomerID

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"authenticated": true,
			"customer_id":   claims.CustomerID,
		})
	}

	c.println("✓ Logged in")
	if claims.CustomerID != "" {
		c.printf("  Customer: %s\n", claims.CustomerID)
	}
	return nil
}

func (c *CLI) newAuthRegisterCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "auth.register", func(ctx context.Context, rec *actionRecord) error {
				return c.runAuthRegister(ctx, name, email, password)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *CLI) runAuthRegister(ctx context.Context, name, email, password string) error {
	var err error
	if name == "" {
		if name, err = c.prompt("Full name: "); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	req := validation.RegisterRequest{FullName: name, Email: email, Password: password}
	if err := validation.Struct(req); err != nil {
		return err
	}

	client, err := c.newRemoteClient(ctx, false)
	if err != nil {
		return err
	}
	if err := client.Register(ctx, req.FullName, req.Email, req.Password); err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"registered": true,
			"email":      email,
		})
	}

	c.println("✓ Registration successful")
	c.println("  Log in with 'storefront auth login'")
	return nil
}

func (c *CLI) newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		Long:  `Display the token source, customer id and token expiry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthStatus(cmd.Context())
		},
	}
}

func (c *CLI) runAuthStatus(ctx context.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	_, source, err := sess.Token(ctx)
	if err != nil {
		return err
	}
	_, claims, err := sess.RequireToken(ctx)
	if err != nil {
		if c.jsonOutput {
			return c.outputJSON(AuthStatus{Authenticated: false, TokenSource: string(source)})
		}
		return err
	}

	status := AuthStatus{
		Authenticated: true,
		TokenSource:   string(source),
		CustomerID:    claims.CustomerID,
		Email:         claims.Email,
		JWT:           claims.JWT,
	}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		status.ExpiresAt = &exp
	}

	if c.jsonOutput {
		return c.outputJSON(status)
	}

	c.println("Authentication Status:")
	c.println("  Authenticated: ✓")
	c.printf("  Token source:  %s\n", status.TokenSource)
	if status.CustomerID != "" {
		c.printf("  Customer:      %s\n", status.CustomerID)
	}
	if status.Email != "" {
		c.printf("  Email:         %s\n", status.Email)
	}
	if status.ExpiresAt != nil {
		c.printf("  Expires:       %s (in %s)\n", status.ExpiresAt.Format(time.RFC3339), time.Until(*status.ExpiresAt).Round(time.Minute))
	}
	if !status.JWT {
		c.println("  Note: opaque token, no claims available")
	}
	return nil
}

func (c *CLI) newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored authentication",
		Long:  `Remove the stored token from the session store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "auth.logout", func(ctx context.Context, rec *actionRecord) error {
				sess, err := c.session(ctx)
				if err != nil {
					return err
				}
				if err := sess.Clear(ctx); err != nil {
					return err
				}
				if c.jsonOutput {
					return c.outputJSON(map[string]interface{}{"authenticated": false})
				}
				c.println("✓ Logged out successfully")
				return nil
			})
		},
	}
}

// AuthStatus represents authentication status for JSON output.
type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	TokenSource   string     `json:"token_source,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	JWT           bool       `json:"jwt"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
