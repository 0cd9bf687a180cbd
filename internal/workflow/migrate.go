package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/security"
	"iamtool/internal/idcs"
	"iamtool/internal/scim/protocol"
)

// DefaultBatchSize is the most operations sent in one bulk request.
const DefaultBatchSize = 100

// UserStore is the SCIM surface the migration needs.
type UserStore interface {
	UsersWithUserNameContaining(ctx context.Context, substr string) iter.Seq2[protocol.User, error]
	Bulk(ctx context.Context, bulk protocol.BulkRequest) (*idcs.BulkResult, error)
}

// Change is one planned userName rewrite.
type Change struct {
	UserID string
	From   string
	To     string
}

// Plan is the ordered set of patches for a migration. Operations[i] applies
// Changes[i].
type Plan struct {
	Operations []protocol.BulkOperation
	Changes    []Change
	// Skipped lists matched users whose userName does not contain the old
	// suffix verbatim (the server filter is case-insensitive).
	Skipped []protocol.User
	Matched int
}

// BuildPlan consumes users and builds one PATCH per user, in order. Users the
// substitution would not change are skipped unless includeUnchanged is set.
func BuildPlan(users iter.Seq2[protocol.User, error], sub protocol.Substitution, includeUnchanged bool) (*Plan, error) {
	plan := &Plan{}
	for u, err := range users {
		if err != nil {
			return nil, err
		}
		plan.Matched++
		op, value, changed := protocol.BuildEmailMigration(u, sub)
		if !changed && !includeUnchanged {
			plan.Skipped = append(plan.Skipped, u)
			continue
		}
		plan.Operations = append(plan.Operations, op)
		plan.Changes = append(plan.Changes, Change{UserID: u.ID, From: u.UserName, To: value})
	}
	return plan, nil
}

// MigrateOptions controls a migration run.
type MigrateOptions struct {
	Substitution     protocol.Substitution
	BatchSize        int
	DryRun           bool
	IncludeUnchanged bool
	// Output receives the bulk request JSON on a dry run.
	Output io.Writer
}

// MigrationReport summarizes a migration run.
type MigrationReport struct {
	Status    Status
	Matched   int
	Planned   int
	Skipped   int
	Batches   int
	Succeeded int
	Failures  []protocol.OperationResult
}

// Migrator moves users from one email suffix to another.
type Migrator struct {
	store  UserStore
	audit  logger.Logger
	logger *slog.Logger
}

// NewMigrator returns a Migrator. audit may be nil.
func NewMigrator(store UserStore, audit logger.Logger, slogger *slog.Logger) *Migrator {
	return &Migrator{store: store, audit: audit, logger: slogger}
}

var migrationColumns = []string{"Action", "UserID", "OldUserName", "NewUserName", "Status", "Detail"}

// Run queries matching users, builds the plan and dispatches it in batches.
// With no matching users it reports StatusNoMatches and sends nothing. A bulk
// call rejected as a whole stops the run with StatusFailed; batches already
// sent stay applied.
func (m *Migrator) Run(ctx context.Context, opts MigrateOptions) (*MigrationReport, error) {
	sub := opts.Substitution
	if sub.Old == "" {
		return nil, errors.New("old suffix must not be empty")
	}
	if sub.Old == sub.New {
		return nil, errors.New("old and new suffix are identical")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	report := &MigrationReport{}
	audit := newAuditTrail(m.audit, m.logger, migrationColumns)

	logger.LogInfo(m.logger, "Searching users", "filter", protocol.ContainsFilter("userName", sub.Old))
	plan, err := BuildPlan(m.store.UsersWithUserNameContaining(ctx, sub.Old), sub, opts.IncludeUnchanged)
	if err != nil {
		report.Status = StatusFailed
		return report, fmt.Errorf("failed to query users: %w", err)
	}
	report.Matched = plan.Matched
	report.Planned = len(plan.Operations)
	report.Skipped = len(plan.Skipped)

	for _, u := range plan.Skipped {
		logger.LogWarn(m.logger, "Skipping user, old suffix not present verbatim",
			"userId", u.ID, "userName", security.MaskEmail(u.UserName))
		audit.row("migrateemail", u.ID, u.UserName, u.UserName, "skipped", "old suffix not present verbatim")
	}

	if plan.Matched == 0 {
		logger.LogInfo(m.logger, "No matching users", "oldSuffix", sub.Old)
		report.Status = StatusNoMatches
		return report, nil
	}
	if len(plan.Operations) == 0 {
		logger.LogInfo(m.logger, "No user needs changes", "matched", plan.Matched)
		report.Status = StatusNoMatches
		return report, nil
	}

	opBatches := protocol.Batches(plan.Operations, opts.BatchSize)
	report.Batches = len(opBatches)

	if opts.DryRun {
		for i, batch := range opBatches {
			if err := writeDryRun(opts.Output, i+1, protocol.NewBulkRequest(batch)); err != nil {
				return report, err
			}
		}
		for _, c := range plan.Changes {
			audit.row("migrateemail", c.UserID, c.From, c.To, "planned", "dry run")
		}
		logger.LogInfo(m.logger, "Dry run, nothing sent", "operations", report.Planned, "batches", report.Batches)
		report.Status = StatusSucceeded
		return report, nil
	}

	offset := 0
	for i, batch := range opBatches {
		changes := plan.Changes[offset : offset+len(batch)]
		offset += len(batch)

		logger.LogInfo(m.logger, "Sending bulk request", "batch", i+1, "of", len(opBatches), "operations", len(batch))
		result, err := m.store.Bulk(ctx, protocol.NewBulkRequest(batch))
		if err != nil {
			for _, c := range changes {
				audit.row("migrateemail", c.UserID, c.From, c.To, "failed", err.Error())
			}
			report.Status = StatusFailed
			return report, fmt.Errorf("bulk request %d of %d: %w", i+1, len(opBatches), err)
		}
		m.record(report, audit, changes, result)
	}

	report.Status = StatusSucceeded
	if len(report.Failures) > 0 {
		report.Status = StatusPartialFailure
	}
	logger.LogInfo(m.logger, "Migration finished", "status", report.Status.String(),
		"succeeded", report.Succeeded, "failed", len(report.Failures), "skipped", report.Skipped)
	return report, nil
}

// record matches per-operation results back to the batch's changes, by user
// id where the server echoes a location and by position otherwise.
func (m *Migrator) record(report *MigrationReport, audit *auditTrail, changes []Change, result *idcs.BulkResult) {
	byID := make(map[string]Change, len(changes))
	for _, c := range changes {
		byID[c.UserID] = c
	}
	seen := make(map[string]bool, len(changes))

	for i, res := range result.Operations {
		c, ok := byID[res.ResourceID()]
		if !ok && i < len(changes) {
			c, ok = changes[i], true
		}
		if !ok || seen[c.UserID] {
			logger.LogWarn(m.logger, "Ignoring unmatched bulk result", "index", i, "location", res.Location, "status", res.Status)
			continue
		}
		seen[c.UserID] = true
		if res.Failed() {
			report.Failures = append(report.Failures, res)
			logger.LogError(m.logger, "Bulk operation failed", "userId", c.UserID, "status", res.Status, "detail", res.Detail)
			audit.row("migrateemail", c.UserID, c.From, c.To, "failed", res.Detail)
			continue
		}
		report.Succeeded++
		audit.row("migrateemail", c.UserID, c.From, c.To, "succeeded", "")
	}

	// Operations the server did not report on count as failed.
	for _, c := range changes {
		if seen[c.UserID] {
			continue
		}
		res := protocol.OperationResult{Method: "PATCH", Path: protocol.UserPath(c.UserID), Detail: "no result reported"}
		report.Failures = append(report.Failures, res)
		audit.row("migrateemail", c.UserID, c.From, c.To, "failed", res.Detail)
	}
}

func writeDryRun(w io.Writer, n int, req protocol.BulkRequest) error {
	if w == nil {
		w = io.Discard
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bulk request: %w", err)
	}
	if _, err := fmt.Fprintf(w, "# bulk request %d\n%s\n", n, data); err != nil {
		return fmt.Errorf("failed to write dry run output: %w", err)
	}
	return nil
}
