// Package auth provides the authorization boundary for retention
// operations: principals, roles, and per-document capabilities.
//
// The retention engine gates every mutating operation on the Authorizer
// interface. A principal passes the attach gate when it is an
// administrator, a member of the record-manager role, or holds both the
// make-record and set-retention capabilities on the target document.
//
// The Static implementation holds roles and capability grants in memory
// and is sufficient for single-node deployments and tests; platform
// deployments are expected to adapt their own ACL store to Authorizer.
package auth
