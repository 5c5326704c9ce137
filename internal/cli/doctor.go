package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/remote"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long: `Run client diagnostics.

Checks:
  - configuration
  - session store
  - authentication status
  - connectivity to the storefront API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context())
		},
	}
}

func (c *CLI) runDoctor(ctx context.Context) error {
	if !c.jsonOutput {
		c.println("Storefront Diagnostics")
		c.println("======================")
		c.println("")
	}

	checks := []DiagnosticCheck{
		c.checkConfig(),
		c.checkSessionStore(ctx),
		c.checkAuth(ctx),
		c.checkAPI(ctx),
	}

	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
		if !c.jsonOutput {
			c.printCheck(check)
		}
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	c.println("")
	if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}

	return nil
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}

	if c.cfg == nil {
		check.Message = "No configuration loaded"
		check.Details = "Create ~/.storefront/config.yaml or use --config flag"
		return check
	}

	if c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		check.Details = "Set endpoint in config or use --endpoint flag"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Endpoint: %s", c.cfg.Endpoint)
	return check
}

func (c *CLI) checkSessionStore(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Session Store"}

	s, err := c.sessionStore(ctx)
	if err != nil {
		check.Message = "Cannot open session store"
		check.Details = firstLine(err.Error())
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.CheckConnectivity(pingCtx); err != nil {
		check.Message = "Session store unreachable"
		check.Details = firstLine(err.Error())
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Backend: %s", c.cfg.Session.Backend)
	return check
}

func (c *CLI) checkAuth(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Authentication"}

	sess, err := c.session(ctx)
	if err != nil {
		check.Message = "Session store unavailable"
		return check
	}
	_, source, err := sess.Token(ctx)
	if err != nil {
		check.Message = "Cannot read token"
		check.Details = firstLine(err.Error())
		return check
	}
	if _, _, err := sess.RequireToken(ctx); err != nil {
		check.Message = firstLine(err.Error())
		check.Details = "Run 'storefront auth login' to authenticate"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Token present (source: %s)", source)
	return check
}

func (c *CLI) checkAPI(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "API Connectivity"}

	if c.cfg == nil || c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		return check
	}

	opts := remote.OptionsFromConfig(c.cfg.Remote)
	opts.Timeout = 3 * time.Second
	client := remote.NewClient(c.cfg.Endpoint, "", opts)

	healthy, err := client.CheckHealth(ctx)
	if err != nil || !healthy {
		check.Message = "Cannot reach the storefront API"
		if err != nil {
			check.Details = firstLine(err.Error())
		}
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Connected to %s", c.cfg.Endpoint)
	return check
}
