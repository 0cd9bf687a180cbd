package workflow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/oauth2"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/poll"
	"iamtool/internal/idcs"
	"iamtool/internal/oci"
	"iamtool/internal/scim/protocol"
)

// AppStore is the SCIM surface needed to deactivate a domain's apps.
type AppStore interface {
	Apps(ctx context.Context) iter.Seq2[protocol.App, error]
	SetAppActive(ctx context.Context, appID string, active bool, auth *oauth2.Token) error
}

// TokenSource mints client-credentials tokens.
type TokenSource interface {
	Issue(ctx context.Context, domainURL, clientID, clientSecret string) (*oauth2.Token, error)
}

// Lifecycle drives the domain itself through the control plane.
type Lifecycle interface {
	Deactivate(ctx context.Context, domainID string) error
	WaitInactive(ctx context.Context, domainID string) error
	Delete(ctx context.Context, domainID string) error
}

// AppKind is how an app must be deactivated.
type AppKind int

const (
	// StandardApp is deactivated with the operator's token.
	StandardApp AppKind = iota
	// ServiceApp (isOPCService) only accepts a token minted with its own
	// credentials.
	ServiceApp
)

func (k AppKind) String() string {
	if k == ServiceApp {
		return "service"
	}
	return "standard"
}

// KindOf classifies app.
func KindOf(app protocol.App) AppKind {
	if app.IsOPCService {
		return ServiceApp
	}
	return StandardApp
}

// AppFailure records an app that could not be deactivated.
type AppFailure struct {
	App protocol.App
	Err error
}

// DeletionReport summarizes a domain teardown.
type DeletionReport struct {
	Status            Status
	Domain            oci.Domain
	AppsDeactivated   int
	AppsAlreadyDown   int
	AppFailures       []AppFailure
	DomainDeactivated bool
	Deleted           bool
}

// DomainDeleter deactivates every app of a domain, deactivates the domain,
// waits for INACTIVE and deletes it.
type DomainDeleter struct {
	apps      AppStore
	tokens    TokenSource
	lifecycle Lifecycle
	audit     logger.Logger
	logger    *slog.Logger
}

// NewDomainDeleter returns a DomainDeleter. audit may be nil.
func NewDomainDeleter(apps AppStore, tokens TokenSource, lifecycle Lifecycle, audit logger.Logger, slogger *slog.Logger) *DomainDeleter {
	return &DomainDeleter{apps: apps, tokens: tokens, lifecycle: lifecycle, audit: audit, logger: slogger}
}

var deletionColumns = []string{"Action", "Resource", "ID", "Name", "Status", "Detail"}

// Run tears domain down. Per-app failures are collected and do not stop the
// run. The domain is deleted only after it has been observed INACTIVE; a
// timeout reports StatusTimedOut and skips the delete.
func (d *DomainDeleter) Run(ctx context.Context, domain oci.Domain) (*DeletionReport, error) {
	report := &DeletionReport{Domain: domain}
	audit := newAuditTrail(d.audit, d.logger, deletionColumns)

	logger.LogInfo(d.logger, "Deactivating domain applications", "domain", domain.DisplayName)
	if err := d.deactivateApps(ctx, domain, report, audit); err != nil {
		report.Status = StatusFailed
		return report, err
	}
	logger.LogInfo(d.logger, "Applications processed", "deactivated", report.AppsDeactivated,
		"alreadyInactive", report.AppsAlreadyDown, "failed", len(report.AppFailures))

	if err := d.lifecycle.Deactivate(ctx, domain.ID); err != nil {
		audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "failed", err.Error())
		report.Status = StatusFailed
		return report, err
	}
	report.DomainDeactivated = true

	if err := d.lifecycle.WaitInactive(ctx, domain.ID); err != nil {
		var timeout *poll.TimeoutError
		if errors.As(err, &timeout) {
			logger.LogError(d.logger, "Timed out waiting for domain deactivation", "domain", domain.DisplayName, "lastState", timeout.Last)
			audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "timeout", err.Error())
			report.Status = StatusTimedOut
			return report, fmt.Errorf("domain %s not inactive: %w", domain.DisplayName, err)
		}
		audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "failed", err.Error())
		report.Status = StatusFailed
		return report, err
	}
	logger.LogInfo(d.logger, "Identity domain deactivated", "domain", domain.DisplayName)
	audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "deactivated", "")

	if err := d.lifecycle.Delete(ctx, domain.ID); err != nil {
		audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "failed", err.Error())
		report.Status = StatusFailed
		return report, err
	}
	report.Deleted = true
	logger.LogInfo(d.logger, "Identity domain deletion requested", "domain", domain.DisplayName)
	audit.row("deletedomain", "domain", domain.ID, domain.DisplayName, "deleted", "")

	report.Status = StatusSucceeded
	if len(report.AppFailures) > 0 {
		report.Status = StatusPartialFailure
	}
	return report, nil
}

func (d *DomainDeleter) deactivateApps(ctx context.Context, domain oci.Domain, report *DeletionReport, audit *auditTrail) error {
	for app, err := range d.apps.Apps(ctx) {
		if err != nil {
			return fmt.Errorf("failed to list apps: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if app.Active != nil && !*app.Active {
			report.AppsAlreadyDown++
			audit.row("deletedomain", "app", app.ID, app.Name, "already inactive", "")
			continue
		}

		err = d.deactivateApp(ctx, domain, app)
		var svcErr *idcs.ServiceError
		if errors.As(err, &svcErr) && svcErr.NotFound() {
			report.AppsAlreadyDown++
			audit.row("deletedomain", "app", app.ID, app.Name, "already removed", "")
			continue
		}
		if err != nil {
			logger.LogWarn(d.logger, "Error deactivating app", "app", app.Name, "kind", KindOf(app).String(), "error", err)
			report.AppFailures = append(report.AppFailures, AppFailure{App: app, Err: err})
			audit.row("deletedomain", "app", app.ID, app.Name, "failed", err.Error())
			continue
		}
		report.AppsDeactivated++
		logger.LogInfo(d.logger, "Application deactivated", "app", app.Name, "kind", KindOf(app).String())
		audit.row("deletedomain", "app", app.ID, app.Name, "deactivated", "")
	}
	return nil
}

func (d *DomainDeleter) deactivateApp(ctx context.Context, domain oci.Domain, app protocol.App) error {
	switch KindOf(app) {
	case ServiceApp:
		if app.ClientSecret == "" {
			return errors.New("service app has no client secret")
		}
		tok, err := d.tokens.Issue(ctx, domain.URL, app.Name, app.ClientSecret)
		if err != nil {
			return fmt.Errorf("failed to issue service app token: %w", err)
		}
		return d.apps.SetAppActive(ctx, app.ID, false, tok)
	default:
		return d.apps.SetAppActive(ctx, app.ID, false, nil)
	}
}
