// Package cli provides the command-line interface for the storefront client.
// The CLI is a client of the storefront API; cart, pending order and payment
// state live in the local session store between invocations.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/cart"
	"github.com/storefront-labs/storefront/internal/checkout"
	"github.com/storefront-labs/storefront/internal/config"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/observability"
	"github.com/storefront-labs/storefront/internal/remote"
	"github.com/storefront-labs/storefront/internal/storage"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAuth       = 2
	ExitRemote     = 3
	ExitInternal   = 4
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Options configures a CLI. Zero values use the process's stdio and open the
// session store from configuration.
type Options struct {
	Out   io.Writer
	Err   io.Writer
	In    io.Reader
	Store storage.SessionStore
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	out    io.Writer
	errOut io.Writer
	in     io.Reader
	reader *bufio.Reader

	store     storage.SessionStore
	ownsStore bool
	logger    observability.ActionLogger

	// Global flags
	configPath     string
	endpoint       string
	token          string
	sessionBackend string
	jsonOutput     bool
	quiet          bool
	debug          bool
}

// New creates a new CLI instance.
func New() *CLI {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a CLI with custom streams or session store.
func NewWithOptions(opts Options) *CLI {
	cli := &CLI{
		out:    opts.Out,
		errOut: opts.Err,
		in:     opts.In,
		store:  opts.Store,
	}
	if cli.out == nil {
		cli.out = os.Stdout
	}
	if cli.errOut == nil {
		cli.errOut = os.Stderr
	}
	if cli.in == nil {
		cli.in = os.Stdin
	}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// SetArgs sets the arguments for the next Execute.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	err := c.rootCmd.ExecuteContext(context.Background())
	c.close()
	if err == nil {
		return ExitSuccess
	}

	if c.jsonOutput {
		_ = c.outputJSON(errorOutput(err))
	} else {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var coded sferrors.Coded
	if errors.As(err, &coded) {
		switch coded.ErrorCode() {
		case sferrors.CodeValidation:
			return ExitValidation
		case sferrors.CodeAuth:
			return ExitAuth
		case sferrors.CodeRemote:
			return ExitRemote
		}
	}
	return ExitInternal
}

func errorOutput(err error) map[string]interface{} {
	out := map[string]interface{}{
		"error":     err.Error(),
		"exit_code": exitCode(err),
	}
	var sfErr interface{ Base() *sferrors.StorefrontError }
	if errors.As(err, &sfErr) {
		base := sfErr.Base()
		out["error"] = base.Message
		out["reason"] = base.Reason
		out["suggestion"] = base.Suggestion
	}
	return out
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront - shop from the command line",
		Long: `Storefront is a command-line client for the storefront API.

It lets you:
  • Browse the product catalog
  • Build a cart that survives between runs
  • Check out, confirm and pay for orders
  • Track order status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)
	cmd.SetIn(c.in)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return sferrors.NewInvalidInput("flags", err.Error())
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.storefront/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "storefront API endpoint")
	cmd.PersistentFlags().StringVar(&c.token, "token", "", "auth token (overrides config and session)")
	cmd.PersistentFlags().StringVar(&c.sessionBackend, "session-backend", "", "session store backend: sqlite, postgres, redis or memory")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	// Add command groups
	cmd.AddCommand(c.newAuthCmd())
	cmd.AddCommand(c.newProductsCmd())
	cmd.AddCommand(c.newCartCmd())
	cmd.AddCommand(c.newOrdersCmd())
	cmd.AddCommand(c.newPayCmd())
	cmd.AddCommand(c.newTrackCmd())
	cmd.AddCommand(c.newActivityCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return sferrors.NewInvalidInput("config", err.Error())
	}
	c.cfg = cfg

	// Override with flags
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}
	if c.sessionBackend != "" {
		c.cfg.Session.Backend = c.sessionBackend
		if err := c.cfg.Validate(); err != nil {
			return sferrors.NewInvalidInput("session-backend", err.Error())
		}
	}

	c.debugf("endpoint=%s session=%s\n", c.cfg.Endpoint, c.cfg.Session.Backend)
	return nil
}

// sessionStore opens the configured store on first use.
func (c *CLI) sessionStore(ctx context.Context) (storage.SessionStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := storage.Open(ctx, c.cfg.Session)
	if err != nil {
		return nil, err
	}
	c.store = s
	c.ownsStore = true
	return s, nil
}

func (c *CLI) close() {
	if c.ownsStore && c.store != nil {
		if err := c.store.Close(); err != nil {
			c.debugf("failed to close session store: %v\n", err)
		}
		c.store = nil
	}
}

func (c *CLI) session(ctx context.Context) (*auth.Session, error) {
	s, err := c.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	return auth.NewSession(s, c.token, c.cfg.Auth.Token), nil
}

// newRemoteClient creates an API client. With requireAuth it fails early when
// there is no usable token.
func (c *CLI) newRemoteClient(ctx context.Context, requireAuth bool) (*remote.Client, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	var token string
	if requireAuth {
		token, _, err = sess.RequireToken(ctx)
	} else {
		token, _, err = sess.Token(ctx)
	}
	if err != nil {
		return nil, err
	}
	return remote.NewClient(c.cfg.Endpoint, token, remote.OptionsFromConfig(c.cfg.Remote)), nil
}

func (c *CLI) cartEngine(ctx context.Context) (*cart.Engine, error) {
	s, err := c.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	return cart.NewEngine(s), nil
}

// checkoutService wires the order submitter only when submission is enabled,
// so local-only confirmation never needs a token.
func (c *CLI) checkoutService(ctx context.Context) (*checkout.Service, error) {
	s, err := c.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	opts := checkout.Options{SubmitOrders: c.cfg.Checkout.SubmitOrders}
	if opts.SubmitOrders {
		client, err := c.newRemoteClient(ctx, true)
		if err != nil {
			return nil, err
		}
		opts.Submitter = client
	}
	return checkout.NewService(s, opts), nil
}

// localCheckoutService serves operations that never reach the API.
func (c *CLI) localCheckoutService(s storage.SessionStore) *checkout.Service {
	return checkout.NewService(s, checkout.Options{})
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Fprintf(c.out, format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Fprintln(c.out, args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.errOut, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Fprintf(c.errOut, "[DEBUG] "+format, args...)
	}
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
