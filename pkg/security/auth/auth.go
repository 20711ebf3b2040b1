package auth

import "context"

// RecordManagerRole is the role whose members may manage retention on any
// document without per-document capability grants.
const RecordManagerRole = "record-managers"

// Capability names checked by the retention engine.
const (
	CapMakeRecord     = "make-record"
	CapSetRetention   = "set-retention"
	CapUnsetRetention = "unset-retention"
	CapSetLegalHold   = "set-legal-hold"
)

// Principal identifies the acting user of an operation.
type Principal struct {
	// Name is the unique principal name.
	Name string

	// Admin marks platform administrators, who pass every gate.
	Admin bool
}

// System is the internal principal used by background workers. It passes
// every authorization gate.
var System = Principal{Name: "system", Admin: true}

// Authorizer answers role and capability questions about principals.
type Authorizer interface {
	// IsAdmin reports whether the principal is an administrator.
	IsAdmin(ctx context.Context, p Principal) bool

	// IsMemberOf reports whether the principal belongs to a role.
	IsMemberOf(ctx context.Context, p Principal, role string) bool

	// HasCapability reports whether the principal holds a named
	// capability on a specific document.
	HasCapability(ctx context.Context, p Principal, documentID, capability string) bool
}

// Static is an in-memory Authorizer with explicit role membership and
// per-document capability grants.
type Static struct {
	roles  map[string]map[string]bool // role -> principal name -> member
	grants map[string]map[string]bool // principal name -> docID + "\x00" + capability
}

// NewStatic creates an empty static authorizer.
func NewStatic() *Static {
	return &Static{
		roles:  make(map[string]map[string]bool),
		grants: make(map[string]map[string]bool),
	}
}

// AddRoleMember adds a principal name to a role.
func (s *Static) AddRoleMember(role, principal string) *Static {
	if s.roles[role] == nil {
		s.roles[role] = make(map[string]bool)
	}
	s.roles[role][principal] = true
	return s
}

// Grant gives a principal a capability on a document.
func (s *Static) Grant(principal, documentID, capability string) *Static {
	if s.grants[principal] == nil {
		s.grants[principal] = make(map[string]bool)
	}
	s.grants[principal][documentID+"\x00"+capability] = true
	return s
}

// IsAdmin reports whether the principal is an administrator.
func (s *Static) IsAdmin(ctx context.Context, p Principal) bool {
	return p.Admin
}

// IsMemberOf reports whether the principal belongs to a role.
func (s *Static) IsMemberOf(ctx context.Context, p Principal, role string) bool {
	return s.roles[role][p.Name]
}

// HasCapability reports whether the principal holds a capability on a
// document. Administrators implicitly hold every capability.
func (s *Static) HasCapability(ctx context.Context, p Principal, documentID, capability string) bool {
	if p.Admin {
		return true
	}
	return s.grants[p.Name][documentID+"\x00"+capability]
}
