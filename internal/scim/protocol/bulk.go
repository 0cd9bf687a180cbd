package protocol

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// NewBulkRequest wraps ops, in order, in a BulkRequest envelope.
func NewBulkRequest(ops []BulkOperation) BulkRequest {
	return BulkRequest{
		Schemas:    []string{SchemaBulkRequest},
		Operations: ops,
	}
}

// Batches splits ops into consecutive chunks of at most size, keeping order.
// size <= 0 yields a single batch.
func Batches(ops []BulkOperation, size int) [][]BulkOperation {
	if len(ops) == 0 {
		return nil
	}
	if size <= 0 || size >= len(ops) {
		return [][]BulkOperation{ops}
	}
	var out [][]BulkOperation
	for start := 0; start < len(ops); start += size {
		end := start + size
		if end > len(ops) {
			end = len(ops)
		}
		out = append(out, ops[start:end])
	}
	return out
}

// OperationResult is the outcome of one operation inside a BulkResponse.
type OperationResult struct {
	Method   string
	Path     string
	Location string
	Status   int
	Detail   string
	ScimType string
}

// Failed reports whether the server rejected this operation.
func (r OperationResult) Failed() bool {
	return r.Status == 0 || r.Status >= 400
}

// ResourceID returns the trailing path segment of Location, falling back to Path.
func (r OperationResult) ResourceID() string {
	ref := r.Location
	if ref == "" {
		ref = r.Path
	}
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if id, err := url.PathUnescape(ref); err == nil {
		return id
	}
	return ref
}

// ParseBulkResponse extracts per-operation results from a BulkResponse body.
// status may be a string ("200"), a number, or an object {"code": 200}.
func ParseBulkResponse(data []byte) ([]OperationResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("bulk response is not valid JSON")
	}
	ops := gjson.GetBytes(data, "Operations")
	if !ops.IsArray() {
		return nil, fmt.Errorf("bulk response has no Operations array")
	}

	var results []OperationResult
	ops.ForEach(func(_, op gjson.Result) bool {
		status := op.Get("status")
		if status.IsObject() {
			status = status.Get("code")
		}
		res := OperationResult{
			Method:   op.Get("method").String(),
			Path:     op.Get("path").String(),
			Location: op.Get("location").String(),
			Status:   int(status.Int()),
			Detail:   op.Get("response.detail").String(),
			ScimType: op.Get("response.scimType").String(),
		}
		switch {
		case res.Status == 0:
			res.Detail = "no status reported"
		case res.Failed() && res.Detail == "":
			res.Detail = http.StatusText(res.Status)
		}
		results = append(results, res)
		return true
	})
	return results, nil
}

// ErrorDetail extracts a human-readable message from a SCIM or OAuth error
// body. It returns "" when the body carries none.
func ErrorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"detail", "error_description", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
