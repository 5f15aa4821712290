// api/dao/helpers.go
package dao

import (
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/latticehq/lattice/api/model"
)

// Timestamps are stored as RFC3339 strings and compared lexicographically in
// Cypher, so every writer must normalize to UTC first. A "+05:00" suffix
// would sort after "Z" regardless of the instant it names.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatNullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullableTime(v interface{}) *time.Time {
	if v == nil {
		return nil
	}
	t := parseTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

// toStringSlice unpacks a Cypher list value, e.g. from collect().
func toStringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// mapNodeToTimelineNode converts a TimelineNode graph node plus its parent id
// (resolved from the CHILD_OF edge) into the model struct. Meta is stored as
// a JSON string property.
func mapNodeToTimelineNode(node neo4j.Node, parentID string) model.TimelineNode {
	props := node.Props
	n := model.TimelineNode{
		ID:        stringProp(props, "id"),
		Type:      model.NodeType(stringProp(props, "nodeType")),
		Label:     stringProp(props, "label"),
		ParentID:  parentID,
		OwnerID:   stringProp(props, "ownerId"),
		CreatedAt: parseTime(props["createdAt"]),
		UpdatedAt: parseTime(props["updatedAt"]),
	}
	if metaJSON := stringProp(props, "meta"); metaJSON != "" {
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err == nil {
			n.Meta = meta
		}
	}
	return n
}

func mapNodeToPolicy(node neo4j.Node) model.NodePolicy {
	props := node.Props
	return model.NodePolicy{
		ID:          stringProp(props, "id"),
		NodeID:      stringProp(props, "nodeId"),
		Level:       model.VisibilityLevel(stringProp(props, "level")),
		Action:      model.AccessAction(stringProp(props, "action")),
		SubjectType: model.SubjectType(stringProp(props, "subjectType")),
		SubjectID:   stringProp(props, "subjectId"),
		Effect:      model.PolicyEffect(stringProp(props, "effect")),
		GrantedBy:   stringProp(props, "grantedBy"),
		CreatedAt:   parseTime(props["createdAt"]),
		ExpiresAt:   parseNullableTime(props["expiresAt"]),
	}
}

func parentIDFromRecord(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func createChangeDetails(oldValue, newValue interface{}) json.RawMessage {
	details := map[string]interface{}{
		"old": oldValue,
		"new": newValue,
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return raw
}
