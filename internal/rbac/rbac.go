// Package rbac implements the access decision for dynamic model operations.
// The decision is a pure function of the model declaration, the requester's
// role and identity, the operation, and the targeted record's owner.
package rbac

import (
	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// Built-in role names. Models may grant permissions to any role string;
// only RoleAdmin carries special treatment (ownership bypass).
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleViewer  = "VIEWER"
)

// Operation is a CRUD permission token.
type Operation string

// Operations a role can be granted on a model.
const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"

	// PermAll is the wildcard token granting every operation.
	PermAll = "all"
)

// verbs maps operations to the wording used in ownership denials.
var verbs = map[Operation]string{
	OpUpdate: "update",
	OpDelete: "delete",
}

// HasPermission reports whether the role's grant set on the model covers the
// operation. Roles absent from the model's RBAC map get zero access.
func HasPermission(def *schema.Definition, role string, op Operation) bool {
	for _, token := range def.RBAC[role] {
		if token == PermAll || token == string(op) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role holds the wildcard grant on the model.
func HasAll(def *schema.Definition, role string) bool {
	for _, token := range def.RBAC[role] {
		if token == PermAll {
			return true
		}
	}
	return false
}

// OwnsRecord reports whether the requester may touch a specific record under
// the model's ownership constraint. The ADMIN role and the all wildcard
// bypass ownership; a raw operation grant does not. A model without an owner
// field constrains nobody, and a record without an owner is unconstrained.
func OwnsRecord(def *schema.Definition, role string, userID uint64, owner *uint64) bool {
	if role == RoleAdmin || HasAll(def, role) {
		return true
	}
	if def.OwnerField == "" || owner == nil {
		return true
	}
	return *owner == userID
}

// Authorize decides whether the requester may perform the operation. The
// permission gate and the ownership gate are independent: a role can hold
// update permission on a model and still be denied on a record it does not
// own. The ownership gate applies only to update and delete; single-record
// read checks go through OwnsRecord at the handler.
func Authorize(def *schema.Definition, role string, userID uint64, op Operation, owner *uint64) error {
	if !HasPermission(def, role, op) {
		return apperr.Forbiddenf("insufficient permissions for %s operation", op)
	}

	if op != OpUpdate && op != OpDelete {
		return nil
	}
	if OwnsRecord(def, role, userID, owner) {
		return nil
	}
	return apperr.Forbiddenf("you can only %s your own records", verbs[op])
}
