// Package protocol holds the SCIM 2.0 message types and helpers used against
// the identity domain REST API (/admin/v1): users, apps, PATCH and Bulk.
package protocol

import "encoding/json"

// Schema URNs.
const (
	SchemaUser             = "urn:ietf:params:scim:schemas:core:2.0:User"
	SchemaListResponse     = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	SchemaPatchOp          = "urn:ietf:params:scim:api:messages:2.0:PatchOp"
	SchemaBulkRequest      = "urn:ietf:params:scim:api:messages:2.0:BulkRequest"
	SchemaBulkResponse     = "urn:ietf:params:scim:api:messages:2.0:BulkResponse"
	SchemaError            = "urn:ietf:params:scim:api:messages:2.0:Error"
	SchemaAppStatusChanger = "urn:ietf:params:scim:schemas:oracle:idcs:AppStatusChanger"
)

// Email types touched by the migration.
const (
	EmailWork     = "work"
	EmailRecovery = "recovery"
)

// Email is one entry of a user's multi-valued emails attribute.
type Email struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// User is the projection of a SCIM user requested with attributes=userName,emails.
type User struct {
	ID       string  `json:"id"`
	UserName string  `json:"userName"`
	Emails   []Email `json:"emails,omitempty"`
}

// Email returns the first address of the given type.
func (u User) Email(emailType string) (string, bool) {
	for _, e := range u.Emails {
		if e.Type == emailType {
			return e.Value, true
		}
	}
	return "", false
}

// App is the projection of an identity domain application.
type App struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName,omitempty"`
	Active       *bool  `json:"active,omitempty"`
	IsOPCService bool   `json:"isOPCService,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// ListResponse is a page of a SCIM list/search.
type ListResponse[T any] struct {
	Schemas      []string `json:"schemas"`
	TotalResults int      `json:"totalResults"`
	ItemsPerPage int      `json:"itemsPerPage"`
	StartIndex   int      `json:"startIndex"`
	Resources    []T      `json:"Resources"`
}

// ParseListResponse decodes one page of a list response.
func ParseListResponse[T any](data []byte) (*ListResponse[T], error) {
	var page ListResponse[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PatchOperation is one {op, path, value} entry of a PatchOp message.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// PatchRequest is a SCIM PatchOp message.
type PatchRequest struct {
	Schemas    []string         `json:"schemas"`
	Operations []PatchOperation `json:"Operations"`
}

// BulkOperation is one independently addressed entry of a BulkRequest.
type BulkOperation struct {
	Method string        `json:"method"`
	Path   string        `json:"path"`
	BulkID string        `json:"bulkId,omitempty"`
	Data   *PatchRequest `json:"data,omitempty"`
}

// BulkRequest batches operations into a single POST /Bulk.
type BulkRequest struct {
	Schemas    []string        `json:"schemas"`
	Operations []BulkOperation `json:"Operations"`
}

// AppStatusChanger activates or deactivates an application.
type AppStatusChanger struct {
	Active  bool     `json:"active"`
	Schemas []string `json:"schemas"`
}

// NewAppDeactivation returns the body that sets an app inactive.
func NewAppDeactivation() AppStatusChanger {
	return AppStatusChanger{
		Active:  false,
		Schemas: []string{SchemaAppStatusChanger},
	}
}
