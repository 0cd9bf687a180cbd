package oci

import (
	"context"
	"fmt"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"
)

// fakeIdentity is an in-memory IdentityAPI.
type fakeIdentity struct {
	compartmentPages [][]identity.Compartment
	domains          map[string][][]identity.DomainSummary // compartment -> pages

	states        []identity.DomainLifecycleStateEnum // returned in turn by GetDomain, last one repeats
	getCalls      int
	deactivateErr error
	deleteErr     error
	calls         []string
}

func (f *fakeIdentity) ListCompartments(_ context.Context, req identity.ListCompartmentsRequest) (identity.ListCompartmentsResponse, error) {
	f.calls = append(f.calls, "ListCompartments")
	page := pageIndex(req.Page)
	var resp identity.ListCompartmentsResponse
	if page < len(f.compartmentPages) {
		resp.Items = f.compartmentPages[page]
	}
	if page+1 < len(f.compartmentPages) {
		resp.OpcNextPage = common.String(fmt.Sprint(page + 1))
	}
	return resp, nil
}

func (f *fakeIdentity) ListDomains(_ context.Context, req identity.ListDomainsRequest) (identity.ListDomainsResponse, error) {
	f.calls = append(f.calls, "ListDomains "+*req.CompartmentId)
	pages := f.domains[*req.CompartmentId]
	page := pageIndex(req.Page)
	var resp identity.ListDomainsResponse
	if page < len(pages) {
		resp.Items = pages[page]
	}
	if page+1 < len(pages) {
		resp.OpcNextPage = common.String(fmt.Sprint(page + 1))
	}
	return resp, nil
}

func (f *fakeIdentity) GetDomain(_ context.Context, req identity.GetDomainRequest) (identity.GetDomainResponse, error) {
	f.calls = append(f.calls, "GetDomain")
	i := f.getCalls
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	f.getCalls++
	var resp identity.GetDomainResponse
	resp.Id = req.DomainId
	resp.LifecycleState = f.states[i]
	return resp, nil
}

func (f *fakeIdentity) DeactivateDomain(_ context.Context, _ identity.DeactivateDomainRequest) (identity.DeactivateDomainResponse, error) {
	f.calls = append(f.calls, "DeactivateDomain")
	return identity.DeactivateDomainResponse{OpcWorkRequestId: common.String("wr-1")}, f.deactivateErr
}

func (f *fakeIdentity) DeleteDomain(_ context.Context, _ identity.DeleteDomainRequest) (identity.DeleteDomainResponse, error) {
	f.calls = append(f.calls, "DeleteDomain")
	return identity.DeleteDomainResponse{OpcWorkRequestId: common.String("wr-2")}, f.deleteErr
}

func pageIndex(token *string) int {
	if token == nil {
		return 0
	}
	var n int
	fmt.Sscan(*token, &n)
	return n
}

// fakeServiceError satisfies common.ServiceError.
type fakeServiceError struct {
	status int
	code   string
	msg    string
}

func (e fakeServiceError) Error() string           { return e.msg }
func (e fakeServiceError) GetHTTPStatusCode() int  { return e.status }
func (e fakeServiceError) GetMessage() string      { return e.msg }
func (e fakeServiceError) GetCode() string         { return e.code }
func (e fakeServiceError) GetOpcRequestID() string { return "opc-1" }

// fakeClock advances only when slept on.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}
