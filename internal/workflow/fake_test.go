package workflow

import (
	"context"
	"iter"

	"iamtool/internal/idcs"
	"iamtool/internal/scim/protocol"
)

// fakeStore is an in-memory UserStore.
type fakeStore struct {
	users     []protocol.User
	listErr   error
	bulkCalls []protocol.BulkRequest
	respond   func(req protocol.BulkRequest) (*idcs.BulkResult, error)
}

func (f *fakeStore) UsersWithUserNameContaining(_ context.Context, _ string) iter.Seq2[protocol.User, error] {
	return func(yield func(protocol.User, error) bool) {
		for _, u := range f.users {
			if !yield(u, nil) {
				return
			}
		}
		if f.listErr != nil {
			yield(protocol.User{}, f.listErr)
		}
	}
}

func (f *fakeStore) Bulk(_ context.Context, req protocol.BulkRequest) (*idcs.BulkResult, error) {
	f.bulkCalls = append(f.bulkCalls, req)
	if f.respond != nil {
		return f.respond(req)
	}
	return allOK(req), nil
}

func allOK(req protocol.BulkRequest) *idcs.BulkResult {
	res := &idcs.BulkResult{StatusCode: 200}
	for _, op := range req.Operations {
		res.Operations = append(res.Operations, protocol.OperationResult{
			Method:   op.Method,
			Location: "/admin/v1" + op.Path,
			Status:   200,
		})
	}
	return res
}

// recordingAudit keeps rows in memory.
type recordingAudit struct {
	header []string
	rows   [][]string
}

func (r *recordingAudit) WriteHeader(columns []string) error { r.header = columns; return nil }
func (r *recordingAudit) WriteRow(row []string) error        { r.rows = append(r.rows, row); return nil }
func (r *recordingAudit) ShouldWriteHeader() (bool, error)   { return r.header == nil, nil }
func (r *recordingAudit) Close() error                       { return nil }

// statuses maps the value in column key to the row's Status column.
func (r *recordingAudit) statuses(key int) map[string]string {
	out := make(map[string]string)
	for _, row := range r.rows {
		out[row[key]] = row[len(row)-2]
	}
	return out
}
