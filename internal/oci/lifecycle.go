package oci

import (
	"context"
	"log/slog"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/poll"
)

const (
	// DefaultPollInterval is the gap between lifecycle state checks.
	DefaultPollInterval = 5 * time.Second
	// DefaultDeactivateTimeout bounds the wait for INACTIVE.
	DefaultDeactivateTimeout = 120 * time.Second
)

// DomainLifecycle drives an identity domain from ACTIVE to deleted.
type DomainLifecycle struct {
	api      IdentityAPI
	clock    poll.Clock
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// LifecycleOption configures a DomainLifecycle.
type LifecycleOption func(*DomainLifecycle)

// WithClock replaces the wall clock used while waiting.
func WithClock(c poll.Clock) LifecycleOption {
	return func(l *DomainLifecycle) { l.clock = c }
}

// NewDomainLifecycle returns a controller polling every 5s for up to 120s.
func NewDomainLifecycle(api IdentityAPI, logger *slog.Logger, opts ...LifecycleOption) *DomainLifecycle {
	l := &DomainLifecycle{
		api:      api,
		clock:    poll.RealClock,
		interval: DefaultPollInterval,
		timeout:  DefaultDeactivateTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the domain's current lifecycle state.
func (l *DomainLifecycle) State(ctx context.Context, domainID string) (string, error) {
	resp, err := l.api.GetDomain(ctx, identity.GetDomainRequest{DomainId: common.String(domainID)})
	if err != nil {
		return "", classify("get domain", err)
	}
	return string(resp.LifecycleState), nil
}

// Deactivate requests deactivation. It does not wait.
func (l *DomainLifecycle) Deactivate(ctx context.Context, domainID string) error {
	resp, err := l.api.DeactivateDomain(ctx, identity.DeactivateDomainRequest{DomainId: common.String(domainID)})
	if err != nil {
		return classify("deactivate domain", err)
	}
	logger.LogInfo(l.logger, "Domain deactivation requested", "domain", domainID, "workRequest", deref(resp.OpcWorkRequestId))
	return nil
}

// WaitInactive polls until the domain reports INACTIVE. It returns
// *poll.TimeoutError when the deadline passes first.
func (l *DomainLifecycle) WaitInactive(ctx context.Context, domainID string) error {
	want := string(identity.DomainLifecycleStateInactive)
	return poll.Until(ctx, l.clock, l.interval, l.timeout, func(ctx context.Context) (bool, string, error) {
		state, err := l.State(ctx, domainID)
		if err != nil {
			return false, "", err
		}
		logger.LogDebug(l.logger, "Domain lifecycle state", "domain", domainID, "state", state)
		return state == want, state, nil
	})
}

// Delete deletes an inactive domain.
func (l *DomainLifecycle) Delete(ctx context.Context, domainID string) error {
	resp, err := l.api.DeleteDomain(ctx, identity.DeleteDomainRequest{DomainId: common.String(domainID)})
	if err != nil {
		return classify("delete domain", err)
	}
	logger.LogInfo(l.logger, "Domain deletion requested", "domain", domainID, "workRequest", deref(resp.OpcWorkRequestId))
	return nil
}
