package syncbox

import "encoding/json"

// Variant is one candidate shape for an entity payload. Variants cover schema
// evolution and naming drift on the remote side: the Applier tries them in
// order until the remote accepts one.
type Variant struct {
	// Name identifies the variant in logs and errors (e.g., "v2", "legacy").
	Name string
	// Transform reshapes the decoded payload into the row this variant sends.
	Transform func(payload map[string]any) (map[string]any, error)
}

// ChildTable names a dependent remote collection cleaned up before deleting a
// parent row. FKColumns are candidate foreign-key column names tried in order,
// covering the same naming drift variants cover for upserts.
type ChildTable struct {
	Collection string
	FKColumns  []string
}

// Mapping binds an entity type to its remote collection and payload variants.
type Mapping struct {
	// Collection is the remote collection upserts and deletes target.
	Collection string
	// ConflictKey is the column upserts resolve conflicts on.
	ConflictKey string
	// IDColumn is the column deletes match the entity id against.
	IDColumn string
	// Variants are the ordered payload shapes tried for upserts.
	Variants []Variant
	// Children are dependent collections cleaned up before a parent delete.
	Children []ChildTable
}

// IdentityVariant passes the decoded payload through unchanged.
func IdentityVariant(name string) Variant {
	return Variant{
		Name: name,
		Transform: func(payload map[string]any) (map[string]any, error) {
			return payload, nil
		},
	}
}

// RenameVariant copies the payload renaming the given fields. Fields absent
// from the payload are skipped rather than written as nulls, so a rename never
// introduces a column the source row did not carry.
func RenameVariant(name string, renames map[string]string) Variant {
	return Variant{
		Name: name,
		Transform: func(payload map[string]any) (map[string]any, error) {
			row := make(map[string]any, len(payload))
			for key, value := range payload {
				if renamed, ok := renames[key]; ok {
					key = renamed
				}
				row[key] = value
			}

			return row, nil
		},
	}
}

// DropFieldsVariant copies the payload omitting the given fields, for remotes
// whose schema predates them.
func DropFieldsVariant(name string, fields ...string) Variant {
	drop := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		drop[field] = struct{}{}
	}

	return Variant{
		Name: name,
		Transform: func(payload map[string]any) (map[string]any, error) {
			row := make(map[string]any, len(payload))
			for key, value := range payload {
				if _, skip := drop[key]; skip {
					continue
				}
				row[key] = value
			}

			return row, nil
		},
	}
}

func decodePayload(payload json.RawMessage) (map[string]any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, err
	}

	return decoded, nil
}
