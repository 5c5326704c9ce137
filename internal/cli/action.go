package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/observability"
	"github.com/storefront-labs/storefront/internal/storage"
)

// actionRecord collects what an action touched, for the activity log.
type actionRecord struct {
	Customer string
	Items    int
	Amount   string

	// rejection is set when the action declined to do anything but still
	// exits successfully, e.g. confirming with no pending order.
	rejection error
}

// run executes one user action and records it in the activity log.
func (c *CLI) run(cmd *cobra.Command, action string, fn func(ctx context.Context, rec *actionRecord) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	rec := &actionRecord{}
	err := fn(ctx, rec)

	entry := observability.ActionLogEntry{
		ActionID:      uuid.NewString(),
		Action:        action,
		Customer:      rec.Customer,
		Items:         rec.Items,
		Amount:        rec.Amount,
		ExecutionTime: time.Since(start),
		Outcome:       observability.OutcomeSuccess,
	}
	switch {
	case err != nil:
		entry.Outcome = observability.OutcomeError
		if exitCode(err) == ExitValidation {
			entry.Outcome = observability.OutcomeRejected
		}
		entry.Error = firstLine(err.Error())
	case rec.rejection != nil:
		entry.Outcome = observability.OutcomeRejected
		entry.Error = firstLine(rec.rejection.Error())
	}

	if logErr := c.actionLogger(ctx).LogAction(ctx, entry); logErr != nil {
		c.debugf("failed to log action: %v\n", logErr)
	}
	return err
}

// actionLogger picks the logger from configuration on first use.
func (c *CLI) actionLogger(ctx context.Context) observability.ActionLogger {
	if c.logger != nil {
		return c.logger
	}
	if c.cfg == nil || strings.EqualFold(c.cfg.Logging.Level, "off") {
		c.logger = observability.NewNoopLogger()
		return c.logger
	}

	var mirror io.Writer
	if c.debug || strings.EqualFold(c.cfg.Logging.Level, "debug") {
		mirror = c.errOut
	}

	if c.cfg.Logging.Persist {
		if s, err := c.sessionStore(ctx); err == nil {
			if sqlStore, ok := s.(*storage.SQLStore); ok {
				if l, err := observability.NewPersistentLoggerWithWriter(sqlStore.DB(), mirror); err == nil {
					c.logger = l
					return c.logger
				}
			}
		}
		c.debugf("activity persistence needs the sqlite or postgres session backend\n")
	}

	if mirror != nil {
		c.logger = observability.NewJSONLogger(mirror)
	} else {
		c.logger = observability.NewNoopLogger()
	}
	return c.logger
}

// prompt reads one line from the input stream.
func (c *CLI) prompt(label string) (string, error) {
	fmt.Fprint(c.errOut, label)
	if c.reader == nil {
		c.reader = bufio.NewReader(c.in)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
