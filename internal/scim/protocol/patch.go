package protocol

import (
	"net/url"
	"strings"
)

// Substitution is a literal, case-sensitive suffix replacement.
type Substitution struct {
	Old string
	New string
}

// Apply replaces every occurrence of Old in s with New. changed is false when
// Old does not occur, in which case s is returned unchanged.
func (sub Substitution) Apply(s string) (result string, changed bool) {
	if sub.Old == "" || !strings.Contains(s, sub.Old) {
		return s, false
	}
	return strings.ReplaceAll(s, sub.Old, sub.New), true
}

// UserPath is the bulk path addressing one user.
func UserPath(id string) string {
	return "/Users/" + url.PathEscape(id)
}

// NewUserNamePatch replaces userName and the work and recovery emails with
// the same value.
func NewUserNamePatch(value string) *PatchRequest {
	single := []Email{{Value: value}}
	return &PatchRequest{
		Schemas: []string{SchemaPatchOp},
		Operations: []PatchOperation{
			{Op: "replace", Path: "userName", Value: value},
			{Op: "replace", Path: EmailTypePath(EmailWork), Value: single},
			{Op: "replace", Path: EmailTypePath(EmailRecovery), Value: single},
		},
	}
}

// BuildEmailMigration turns one user into a PATCH bulk operation. The new
// value is derived from userName only. changed reports whether the old suffix
// occurred; when it did not, the operation would rewrite the fields to the
// unchanged userName.
func BuildEmailMigration(u User, sub Substitution) (op BulkOperation, newValue string, changed bool) {
	newValue, changed = sub.Apply(u.UserName)
	op = BulkOperation{
		Method: "PATCH",
		Path:   UserPath(u.ID),
		Data:   NewUserNamePatch(newValue),
	}
	return op, newValue, changed
}
