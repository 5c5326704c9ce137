// Package observability provides the structured action log of the storefront client.
//
// Every user action emits: action_id, action, customer, item count, amount,
// execution time, outcome and error (if any).
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ActionLogEntry contains all required fields for action logging.
type ActionLogEntry struct {
	// ActionID is the unique identifier for this action.
	ActionID string

	// Action is the command that ran, e.g. "cart.checkout".
	Action string

	// Customer is the customer id, if known.
	Customer string

	// Items is the number of units involved (cart size, order size).
	Items int

	// Amount is the money involved, as a decimal string.
	Amount string

	// ExecutionTime is how long the action took.
	// Must be non-negative.
	ExecutionTime time.Duration

	// Outcome is the result status: "success", "rejected" or "error".
	Outcome string

	// Error contains the error message if the action failed.
	Error string
}

// Validate checks that all required fields are present.
func (e *ActionLogEntry) Validate() error {
	if e.ActionID == "" {
		return fmt.Errorf("observability: action_id is required")
	}
	if e.Action == "" {
		return fmt.Errorf("observability: action is required")
	}
	if e.ExecutionTime < 0 {
		return fmt.Errorf("observability: execution_time cannot be negative")
	}
	return nil
}

// ActionLogger is the interface for action logging.
type ActionLogger interface {
	// LogAction logs a user action.
	// Returns an error if logging fails or the entry is invalid.
	LogAction(ctx context.Context, entry ActionLogEntry) error

	// Summary returns aggregated activity statistics.
	Summary(ctx context.Context) (*ActivitySummary, error)
}

// ActivitySummary represents aggregated activity statistics.
type ActivitySummary struct {
	AcceptedCount       int                   `json:"accepted_count"`
	RejectedCount       int                   `json:"rejected_count"`
	TopRejectionReasons []RejectionReasonStat `json:"top_rejection_reasons"`
	TopActions          []ActionStat          `json:"top_actions"`
}

// RejectionReasonStat represents rejection reason statistics.
type RejectionReasonStat struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// ActionStat represents per-action statistics.
type ActionStat struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

func emptySummary() *ActivitySummary {
	return &ActivitySummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopActions:          []ActionStat{},
	}
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp       string `json:"timestamp"`
	Level           string `json:"level"`
	ActionID        string `json:"action_id"`
	Action          string `json:"action"`
	Customer        string `json:"customer,omitempty"`
	Items           int    `json:"items"`
	Amount          string `json:"amount,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	Outcome         string `json:"outcome,omitempty"`
	Error           string `json:"error,omitempty"`
}

func encodeEntry(entry ActionLogEntry) ([]byte, error) {
	level := "info"
	if entry.Error != "" {
		level = "error"
	}
	output := jsonLogOutput{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Level:           level,
		ActionID:        entry.ActionID,
		Action:          entry.Action,
		Customer:        entry.Customer,
		Items:           entry.Items,
		Amount:          entry.Amount,
		ExecutionTimeMs: entry.ExecutionTime.Milliseconds(),
		Outcome:         entry.Outcome,
		Error:           entry.Error,
	}
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to marshal log: %w", err)
	}
	return append(data, '\n'), nil
}

// JSONLogger implements ActionLogger with JSON lines output.
type JSONLogger struct {
	writer  io.Writer
	entries []ActionLogEntry
	mu      sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  w,
		entries: make([]ActionLogEntry, 0),
	}
}

// LogAction logs an action as one JSON line.
func (l *JSONLogger) LogAction(ctx context.Context, entry ActionLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Summary aggregates the entries logged by this process.
func (l *JSONLogger) Summary(ctx context.Context) (*ActivitySummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := emptySummary()
	reasons := make(map[string]int)
	actions := make(map[string]int)

	for _, entry := range l.entries {
		if entry.Error == "" {
			summary.AcceptedCount++
		} else {
			summary.RejectedCount++
			reasons[entry.Error]++
		}
		actions[entry.Action]++
	}

	for reason, count := range reasons {
		summary.TopRejectionReasons = append(summary.TopRejectionReasons, RejectionReasonStat{Reason: reason, Count: count})
	}
	sort.Slice(summary.TopRejectionReasons, func(i, j int) bool {
		a, b := summary.TopRejectionReasons[i], summary.TopRejectionReasons[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})
	if len(summary.TopRejectionReasons) > 5 {
		summary.TopRejectionReasons = summary.TopRejectionReasons[:5]
	}

	for action, count := range actions {
		summary.TopActions = append(summary.TopActions, ActionStat{Action: action, Count: count})
	}
	sort.Slice(summary.TopActions, func(i, j int) bool {
		a, b := summary.TopActions[i], summary.TopActions[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Action < b.Action
	})
	if len(summary.TopActions) > 5 {
		summary.TopActions = summary.TopActions[:5]
	}

	return summary, nil
}

// NoopLogger is a logger that discards all logs.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogAction does nothing and always succeeds.
func (l *NoopLogger) LogAction(ctx context.Context, entry ActionLogEntry) error {
	return nil
}

// Summary returns an empty summary.
func (l *NoopLogger) Summary(ctx context.Context) (*ActivitySummary, error) {
	return emptySummary(), nil
}

// PersistentLogger implements ActionLogger on the activity_log table of the
// SQL session database, so history survives across invocations.
type PersistentLogger struct {
	db     *sql.DB
	writer io.Writer // optional: also write JSON lines
}

// NewPersistentLogger creates a logger that persists entries to db.
func NewPersistentLogger(db *sql.DB) (*PersistentLogger, error) {
	return NewPersistentLoggerWithWriter(db, nil)
}

// NewPersistentLoggerWithWriter creates a logger that persists to both db and a writer.
func NewPersistentLoggerWithWriter(db *sql.DB, w io.Writer) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{
		db:     db,
		writer: w,
	}, nil
}

// LogAction inserts the entry into activity_log.
func (l *PersistentLogger) LogAction(ctx context.Context, entry ActionLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO activity_log (
			action_id, action, customer_id, items, amount,
			execution_time_ms, outcome, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.ActionID,
		entry.Action,
		nullableString(entry.Customer),
		entry.Items,
		nullableString(entry.Amount),
		entry.ExecutionTime.Milliseconds(),
		nullableString(entry.Outcome),
		nullableString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("observability: failed to persist activity log: %w", err)
	}

	if l.writer != nil {
		if data, err := encodeEntry(entry); err == nil {
			l.writer.Write(data)
		}
	}

	return nil
}

// Summary aggregates the persisted activity.
func (l *PersistentLogger) Summary(ctx context.Context) (*ActivitySummary, error) {
	summary := emptySummary()

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_log WHERE error_message IS NULL OR error_message = ''
	`)
	if err := row.Scan(&summary.AcceptedCount); err != nil {
		return nil, fmt.Errorf("observability: failed to count accepted actions: %w", err)
	}

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_log WHERE error_message IS NOT NULL AND error_message != ''
	`)
	if err := row.Scan(&summary.RejectedCount); err != nil {
		return nil, fmt.Errorf("observability: failed to count rejected actions: %w", err)
	}

	reasons, err := l.db.QueryContext(ctx, `
		SELECT error_message, COUNT(*) AS cnt
		FROM activity_log
		WHERE error_message IS NOT NULL AND error_message != ''
		GROUP BY error_message
		ORDER BY cnt DESC, error_message
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to query rejection reasons: %w", err)
	}
	defer reasons.Close()
	for reasons.Next() {
		var stat RejectionReasonStat
		if err := reasons.Scan(&stat.Reason, &stat.Count); err != nil {
			return nil, fmt.Errorf("observability: failed to scan rejection reason: %w", err)
		}
		summary.TopRejectionReasons = append(summary.TopRejectionReasons, stat)
	}
	if err := reasons.Err(); err != nil {
		return nil, err
	}

	actions, err := l.db.QueryContext(ctx, `
		SELECT action, COUNT(*) AS cnt
		FROM activity_log
		GROUP BY action
		ORDER BY cnt DESC, action
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to query actions: %w", err)
	}
	defer actions.Close()
	for actions.Next() {
		var stat ActionStat
		if err := actions.Scan(&stat.Action, &stat.Count); err != nil {
			return nil, fmt.Errorf("observability: failed to scan action: %w", err)
		}
		summary.TopActions = append(summary.TopActions, stat)
	}
	return summary, actions.Err()
}

// nullableString converts empty strings to nil for SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
