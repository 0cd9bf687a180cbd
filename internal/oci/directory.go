package oci

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"

	"iamtool/internal/common/logger"
)

// IdentityAPI is the subset of identity.IdentityClient used here.
type IdentityAPI interface {
	ListCompartments(ctx context.Context, request identity.ListCompartmentsRequest) (identity.ListCompartmentsResponse, error)
	ListDomains(ctx context.Context, request identity.ListDomainsRequest) (identity.ListDomainsResponse, error)
	GetDomain(ctx context.Context, request identity.GetDomainRequest) (identity.GetDomainResponse, error)
	DeactivateDomain(ctx context.Context, request identity.DeactivateDomainRequest) (identity.DeactivateDomainResponse, error)
	DeleteDomain(ctx context.Context, request identity.DeleteDomainRequest) (identity.DeleteDomainResponse, error)
}

var _ IdentityAPI = identity.IdentityClient{}

// Compartment is a tenancy compartment.
type Compartment struct {
	ID   string
	Name string
}

// Domain is an identity domain as listed by the control plane.
type Domain struct {
	ID             string
	DisplayName    string
	URL            string
	LifecycleState string
	CompartmentID  string
}

func domainFromSummary(s identity.DomainSummary) Domain {
	return Domain{
		ID:             deref(s.Id),
		DisplayName:    deref(s.DisplayName),
		URL:            deref(s.Url),
		LifecycleState: string(s.LifecycleState),
		CompartmentID:  deref(s.CompartmentId),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Directory discovers identity domains across a tenancy.
type Directory struct {
	api       IdentityAPI
	tenancyID string
	logger    *slog.Logger
}

// NewDirectory returns a Directory rooted at tenancyID.
func NewDirectory(api IdentityAPI, tenancyID string, logger *slog.Logger) *Directory {
	return &Directory{api: api, tenancyID: tenancyID, logger: logger}
}

// Compartments returns every compartment in the tenancy subtree followed by
// the tenancy itself (the root compartment).
func (d *Directory) Compartments(ctx context.Context) ([]Compartment, error) {
	var out []Compartment
	req := identity.ListCompartmentsRequest{
		CompartmentId:          common.String(d.tenancyID),
		CompartmentIdInSubtree: common.Bool(true),
		AccessLevel:            identity.ListCompartmentsAccessLevelAccessible,
	}
	for {
		resp, err := d.api.ListCompartments(ctx, req)
		if err != nil {
			return nil, classify("list compartments", err)
		}
		for _, c := range resp.Items {
			out = append(out, Compartment{ID: deref(c.Id), Name: deref(c.Name)})
		}
		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}
	out = append(out, Compartment{ID: d.tenancyID, Name: "(root)"})
	logger.LogDebug(d.logger, "Listed compartments", "count", len(out))
	return out, nil
}

// DomainsIn lists the identity domains of one compartment.
func (d *Directory) DomainsIn(ctx context.Context, compartmentID string) ([]Domain, error) {
	var out []Domain
	req := identity.ListDomainsRequest{CompartmentId: common.String(compartmentID)}
	for {
		resp, err := d.api.ListDomains(ctx, req)
		if err != nil {
			return nil, classify("list domains", err)
		}
		for _, s := range resp.Items {
			out = append(out, domainFromSummary(s))
		}
		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}
	return out, nil
}

// Domains lists identity domains in every compartment of the tenancy, in
// compartment order.
func (d *Directory) Domains(ctx context.Context) ([]Domain, error) {
	compartments, err := d.Compartments(ctx)
	if err != nil {
		return nil, err
	}
	var out []Domain
	for _, c := range compartments {
		domains, err := d.DomainsIn(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domains...)
	}
	logger.LogInfo(d.logger, "Discovered identity domains", "compartments", len(compartments), "domains", len(out))
	return out, nil
}

// FindDomain selects a domain by OCID or by display name. A display name that
// matches more than one domain is an error.
func FindDomain(domains []Domain, key string) (Domain, error) {
	if strings.HasPrefix(key, "ocid1.") {
		for _, d := range domains {
			if d.ID == key {
				return d, nil
			}
		}
		return Domain{}, fmt.Errorf("no identity domain with OCID %s", key)
	}

	var matches []Domain
	for _, d := range domains {
		if d.DisplayName == key {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return Domain{}, fmt.Errorf("no identity domain named %q", key)
	case 1:
		return matches[0], nil
	default:
		return Domain{}, fmt.Errorf("%d identity domains are named %q, select by OCID instead", len(matches), key)
	}
}
