package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/ratelimit"
	"iamtool/internal/common/security"
	"iamtool/internal/common/validation"
	"iamtool/internal/idcs"
	"iamtool/internal/oci"
	"iamtool/internal/prompt"
	"iamtool/internal/scim/protocol"
	"iamtool/internal/workflow"
)

// app carries the wired dependencies of one run.
type app struct {
	config   *Config
	logger   *slog.Logger
	audit    logger.Logger
	out      io.Writer
	prompter *prompt.Prompter
	identity oci.IdentityAPI
	issuer   *idcs.TokenIssuer
	limiter  *ratelimit.Limiter
	// lifecycleOpts tunes domain polling (tests use a fake clock).
	lifecycleOpts []oci.LifecycleOption
}

// executeAction dispatches to the handler for config.Action.
func executeAction(ctx context.Context, a *app) (workflow.Status, error) {
	switch a.config.Action {
	case ActionListDomains:
		return listDomains(ctx, a)
	case ActionListUsers:
		return listUsers(ctx, a)
	case ActionMigrateEmail:
		return migrateEmail(ctx, a)
	case ActionDeleteDomain:
		return deleteDomain(ctx, a)
	default:
		return workflow.StatusFailed, &ConfigError{Err: fmt.Errorf("unknown action: %s", a.config.Action)}
	}
}

func listDomains(ctx context.Context, a *app) (workflow.Status, error) {
	domains, err := oci.NewDirectory(a.identity, a.config.TenancyOCID, a.logger).Domains(ctx)
	if err != nil {
		return workflow.StatusFailed, err
	}
	if len(domains) == 0 {
		fmt.Fprintln(a.out, "No identity domains found.")
		return workflow.StatusNoMatches, nil
	}

	fmt.Fprintf(a.out, "Identity domains (%d):\n", len(domains))
	for i, d := range domains {
		fmt.Fprintf(a.out, "%d) %s\n", i+1, d.DisplayName)
		fmt.Fprintf(a.out, "   OCID:  %s\n", d.ID)
		fmt.Fprintf(a.out, "   State: %s\n", d.LifecycleState)
		fmt.Fprintf(a.out, "   URL:   %s\n", d.URL)
	}
	auditRows(a, []string{"Action", "DomainID", "DisplayName", "State", "URL"}, func(row func(...string)) {
		for _, d := range domains {
			row(ActionListDomains, d.ID, d.DisplayName, d.LifecycleState, d.URL)
		}
	})
	return workflow.StatusSucceeded, nil
}

// selectDomain resolves -domain, or shows the numbered menu when it is empty.
func selectDomain(ctx context.Context, a *app) (oci.Domain, error) {
	domains, err := oci.NewDirectory(a.identity, a.config.TenancyOCID, a.logger).Domains(ctx)
	if err != nil {
		return oci.Domain{}, err
	}
	if len(domains) == 0 {
		return oci.Domain{}, errors.New("no identity domains found in tenancy")
	}

	if a.config.Domain != "" {
		d, err := oci.FindDomain(domains, a.config.Domain)
		if err != nil {
			return oci.Domain{}, &ConfigError{Err: err}
		}
		return d, nil
	}

	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.DisplayName
	}
	idx, err := a.prompter.Select("Domains found on tenancy:", names, "Select an option from Domain list:")
	if err != nil {
		return oci.Domain{}, &ConfigError{Err: fmt.Errorf("domain selection: %w", err)}
	}
	return domains[idx], nil
}

// connect issues a token for the domain's confidential app and returns a SCIM
// client using it.
func connect(ctx context.Context, a *app, domain oci.Domain) (*idcs.Client, error) {
	if err := validation.ValidateDomainURL(domain.URL); err != nil {
		return nil, fmt.Errorf("domain %s: %w", domain.DisplayName, err)
	}

	logger.LogInfo(a.logger, "Requesting access token", "domain", domain.DisplayName,
		"clientId", security.MaskClientID(a.config.ClientID))
	tok, err := a.issuer.Issue(ctx, domain.URL, a.config.ClientID, a.config.ClientSecret)
	if err != nil {
		return nil, err
	}
	if a.config.VerboseMode {
		printTokenInfo(a.out, tok)
	}

	return idcs.NewClient(domain.URL, tok,
		idcs.WithRateLimiter(a.limiter),
		idcs.WithLogger(a.logger),
	), nil
}

func listUsers(ctx context.Context, a *app) (workflow.Status, error) {
	domain, err := selectDomain(ctx, a)
	if err != nil {
		return workflow.StatusFailed, err
	}
	client, err := connect(ctx, a, domain)
	if err != nil {
		return workflow.StatusFailed, err
	}

	var rows [][]string
	for u, err := range client.UsersWithUserNameContaining(ctx, a.config.OldSuffix) {
		if err != nil {
			return workflow.StatusFailed, err
		}
		work, _ := u.Email(protocol.EmailWork)
		recovery, _ := u.Email(protocol.EmailRecovery)
		fmt.Fprintf(a.out, "%s  %s  work=%s  recovery=%s\n", u.ID, u.UserName, ifEmpty(work, "-"), ifEmpty(recovery, "-"))
		rows = append(rows, []string{ActionListUsers, u.ID, u.UserName, work, recovery})
	}

	if len(rows) == 0 {
		fmt.Fprintf(a.out, "No users with userName containing %q in %s.\n", a.config.OldSuffix, domain.DisplayName)
		return workflow.StatusNoMatches, nil
	}
	fmt.Fprintf(a.out, "%d user(s) found.\n", len(rows))
	auditRows(a, []string{"Action", "UserID", "UserName", "WorkEmail", "RecoveryEmail"}, func(row func(...string)) {
		for _, r := range rows {
			row(r...)
		}
	})
	return workflow.StatusSucceeded, nil
}

func migrateEmail(ctx context.Context, a *app) (workflow.Status, error) {
	domain, err := selectDomain(ctx, a)
	if err != nil {
		return workflow.StatusFailed, err
	}

	if err := promptSuffixes(a); err != nil {
		return workflow.StatusFailed, err
	}

	client, err := connect(ctx, a, domain)
	if err != nil {
		return workflow.StatusFailed, err
	}

	migrator := workflow.NewMigrator(client, a.audit, a.logger)
	report, err := migrator.Run(ctx, workflow.MigrateOptions{
		Substitution:     protocol.Substitution{Old: a.config.OldSuffix, New: a.config.NewSuffix},
		BatchSize:        a.config.BatchSize,
		DryRun:           a.config.DryRun,
		IncludeUnchanged: a.config.IncludeUnchanged,
		Output:           a.out,
	})
	if report == nil {
		return workflow.StatusFailed, err
	}

	switch {
	case report.Matched == 0:
		fmt.Fprintf(a.out, "No matching users for %q in %s.\n", a.config.OldSuffix, domain.DisplayName)
	case a.config.DryRun:
		fmt.Fprintf(a.out, "Dry run: %d user(s) matched, %d planned, %d skipped, %d batch(es).\n",
			report.Matched, report.Planned, report.Skipped, report.Batches)
	default:
		fmt.Fprintf(a.out, "Migration %s: %d user(s) matched, %d updated, %d failed, %d skipped.\n",
			report.Status, report.Matched, report.Succeeded, len(report.Failures), report.Skipped)
		for _, f := range report.Failures {
			fmt.Fprintf(a.out, "  %s: %d %s\n", f.ResourceID(), f.Status, f.Detail)
		}
	}
	return report.Status, err
}

// promptSuffixes asks for whichever suffix was not configured.
func promptSuffixes(a *app) error {
	var err error
	if a.config.OldSuffix == "" {
		a.config.OldSuffix, err = a.prompter.Text("Old email suffix:", func(s string) error {
			return validation.ValidateSuffix(s, "old suffix")
		})
		if err != nil {
			return &ConfigError{Err: fmt.Errorf("old suffix: %w", err)}
		}
	}
	if a.config.NewSuffix == "" {
		a.config.NewSuffix, err = a.prompter.Text("New email suffix:", func(s string) error {
			if s == a.config.OldSuffix {
				return errors.New("new suffix equals old suffix")
			}
			return validation.ValidateSuffix(s, "new suffix")
		})
		if err != nil {
			return &ConfigError{Err: fmt.Errorf("new suffix: %w", err)}
		}
	}
	if a.config.OldSuffix == a.config.NewSuffix {
		return &ConfigError{Err: errors.New("old and new suffix are identical")}
	}
	return nil
}

func deleteDomain(ctx context.Context, a *app) (workflow.Status, error) {
	domain, err := selectDomain(ctx, a)
	if err != nil {
		return workflow.StatusFailed, err
	}

	fmt.Fprintf(a.out, "Selected domain: %s (%s)\n", domain.DisplayName, domain.ID)
	if !a.config.Confirm {
		fmt.Fprintln(a.out, "All applications in this domain will be deactivated and the domain deleted.")
		ok, err := a.prompter.Confirm(fmt.Sprintf("Type the domain name (%s) to confirm:", domain.DisplayName), domain.DisplayName)
		if err != nil {
			return workflow.StatusFailed, &ConfigError{Err: fmt.Errorf("confirmation: %w", err)}
		}
		if !ok {
			return workflow.StatusFailed, &ConfigError{Err: errors.New("deletion not confirmed")}
		}
	}

	client, err := connect(ctx, a, domain)
	if err != nil {
		return workflow.StatusFailed, err
	}

	lifecycle := oci.NewDomainLifecycle(a.identity, a.logger, a.lifecycleOpts...)
	deleter := workflow.NewDomainDeleter(client, a.issuer, lifecycle, a.audit, a.logger)
	report, err := deleter.Run(ctx, domain)

	fmt.Fprintf(a.out, "Applications: %d deactivated, %d already inactive, %d failed.\n",
		report.AppsDeactivated, report.AppsAlreadyDown, len(report.AppFailures))
	for _, f := range report.AppFailures {
		fmt.Fprintf(a.out, "  %s (%s): %v\n", f.App.Name, workflow.KindOf(f.App), f.Err)
	}
	switch {
	case report.Deleted:
		fmt.Fprintf(a.out, "Domain %s deletion requested.\n", domain.DisplayName)
	case report.Status == workflow.StatusTimedOut:
		fmt.Fprintf(a.out, "Domain %s did not become INACTIVE in time; it was not deleted.\n", domain.DisplayName)
	default:
		fmt.Fprintf(a.out, "Domain %s was not deleted.\n", domain.DisplayName)
	}
	return report.Status, err
}

// auditRows writes rows to the audit trail, logging any write error.
func auditRows(a *app, columns []string, fill func(row func(...string))) {
	if a.audit == nil {
		return
	}
	write, err := a.audit.ShouldWriteHeader()
	if err == nil && write {
		err = a.audit.WriteHeader(columns)
	}
	if err != nil {
		logger.LogWarn(a.logger, "Audit log write failed", "error", err)
		return
	}
	fill(func(fields ...string) {
		if err != nil {
			return
		}
		if err = a.audit.WriteRow(fields); err != nil {
			logger.LogWarn(a.logger, "Audit log write failed", "error", err)
		}
	})
}

func ifEmpty(s, defaultVal string) string {
	if strings.TrimSpace(s) == "" {
		return defaultVal
	}
	return s
}
