/*
Package security groups the security concerns of Saturn.

# Authorization

The auth subpackage answers the role and capability questions the
retention engine asks before mutating a document:

	authz := auth.NewStatic().
		AddRoleMember(auth.RecordManagerRole, "mdoe").
		Grant("jroe", "doc-1", auth.CapMakeRecord).
		Grant("jroe", "doc-1", auth.CapSetRetention)

Administrators and members of the record-managers role pass every gate;
other principals need per-document capability grants.
*/
package security
