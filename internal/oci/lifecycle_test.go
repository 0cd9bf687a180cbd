package oci

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oracle/oci-go-sdk/v65/identity"

	"iamtool/internal/common/poll"
)

func TestDomainLifecycle_WaitInactive(t *testing.T) {
	api := &fakeIdentity{states: []identity.DomainLifecycleStateEnum{
		identity.DomainLifecycleStateActive,
		identity.DomainLifecycleStateActive,
		identity.DomainLifecycleStateInactive,
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	lc := NewDomainLifecycle(api, nil, WithClock(clock))

	if err := lc.WaitInactive(context.Background(), "ocid1.domain.oc1..d"); err != nil {
		t.Fatalf("WaitInactive() error = %v", err)
	}
	if api.getCalls != 3 {
		t.Errorf("GetDomain calls = %d, want 3", api.getCalls)
	}
	for _, d := range clock.sleeps {
		if d != 5*time.Second {
			t.Errorf("slept %s, want 5s between checks", d)
		}
	}
}

func TestDomainLifecycle_WaitInactiveTimeout(t *testing.T) {
	api := &fakeIdentity{states: []identity.DomainLifecycleStateEnum{identity.DomainLifecycleStateActive}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	lc := NewDomainLifecycle(api, nil, WithClock(clock))

	err := lc.WaitInactive(context.Background(), "ocid1.domain.oc1..d")

	var timeout *poll.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("WaitInactive() error = %v, want *poll.TimeoutError", err)
	}
	if timeout.Last != "ACTIVE" {
		t.Errorf("Last = %q, want ACTIVE", timeout.Last)
	}
	var total time.Duration
	for _, d := range clock.sleeps {
		total += d
	}
	if total != 120*time.Second {
		t.Errorf("total wait = %s, want 120s", total)
	}
	for _, c := range api.calls {
		if c == "DeleteDomain" {
			t.Error("WaitInactive must never delete")
		}
	}
}

func TestDomainLifecycle_DeactivateAndDelete(t *testing.T) {
	api := &fakeIdentity{}
	lc := NewDomainLifecycle(api, nil)

	if err := lc.Deactivate(context.Background(), "d"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if err := lc.Delete(context.Background(), "d"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := strings.Join(api.calls, ","); got != "DeactivateDomain,DeleteDomain" {
		t.Errorf("calls = %s", got)
	}
}

func TestDomainLifecycle_DeactivateServiceError(t *testing.T) {
	api := &fakeIdentity{deactivateErr: fakeServiceError{status: 409, code: "Conflict", msg: "domain has active apps"}}
	err := NewDomainLifecycle(api, nil).Deactivate(context.Background(), "d")

	var svc *ServiceError
	if !errors.As(err, &svc) || svc.StatusCode != 409 {
		t.Fatalf("Deactivate() error = %v, want 409 *ServiceError", err)
	}
	if !strings.Contains(err.Error(), "domain has active apps") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDomainLifecycle_PlainErrorsAreWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	api := &fakeIdentity{deleteErr: cause}
	err := NewDomainLifecycle(api, nil).Delete(context.Background(), "d")

	var svc *ServiceError
	if errors.As(err, &svc) {
		t.Fatalf("transport error classified as service error: %v", err)
	}
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "delete domain:") {
		t.Errorf("Delete() error = %v", err)
	}
}
