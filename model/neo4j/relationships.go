// api/model/neo4j/relationships.go
package lattice_neo4j

// Relationship Types
const (
	// RelOwnedBy represents the relationship between a timeline node and its owner
	RelOwnedBy = "OWNED_BY"

	// RelChildOf represents the parent pointer between two timeline nodes of
	// the same owner. The CHILD_OF graph per owner must stay acyclic.
	RelChildOf = "CHILD_OF"

	// RelHasPolicy represents the relationship between a timeline node and an
	// access policy stored for it
	RelHasPolicy = "HAS_POLICY"

	// RelMemberOf represents the relationship between a user and an
	// organization; carries a `role` property (member/admin/alumni)
	RelMemberOf = "MEMBER_OF"
)
