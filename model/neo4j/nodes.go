// api/model/neo4j/nodes.go
package lattice_neo4j

// Node Labels
const (
	// LabelUser represents a user in the system
	LabelUser = "User"

	// LabelOrganization represents a company, school or other institution
	LabelOrganization = "Organization"

	// LabelTimelineNode represents a single career-timeline entry
	LabelTimelineNode = "TimelineNode"

	// LabelNodePolicy represents an access grant or denial on a timeline node
	LabelNodePolicy = "NodePolicy"
)
