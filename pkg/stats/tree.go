package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Node is one level of a metric tree: either a Leaf holding a signed
// integer, or a Branch holding named children. The closed variant keeps
// shape errors visible to the type system; only data decoded from the
// store can still diverge at runtime.
type Node interface {
	node()
}

// Leaf is a single signed metric value. -1 means "unranked" and is carried
// through aggregation like any other value.
type Leaf int64

func (Leaf) node() {}

// Branch maps metric names to nested nodes, e.g.
// {"skills": {"Overall": {"lvl": 99, "xp": 200000000, "rnk": 1}}}.
type Branch map[string]Node

func (Branch) node() {}

// UnmarshalJSON decodes the nested numeric form. Objects become branches,
// everything else must be an integer leaf.
func (b *Branch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Branch, len(raw))
	for key, val := range raw {
		node, err := unmarshalNode(key, val)
		if err != nil {
			return err
		}
		out[key] = node
	}
	*b = out
	return nil
}

func unmarshalNode(key string, data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var child Branch
		if err := json.Unmarshal(trimmed, &child); err != nil {
			return nil, err
		}
		return child, nil
	}

	n, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("leaf %q must be an integer: %w", key, err)
	}
	return Leaf(n), nil
}

// Clone returns a deep copy of the branch.
func (b Branch) Clone() Branch {
	out := make(Branch, len(b))
	for key, v := range b {
		switch v := v.(type) {
		case Branch:
			out[key] = v.Clone()
		default:
			out[key] = v
		}
	}
	return out
}

// Values converts the branch to a plain nested map with int64 leaves.
// Used when raw rows are returned verbatim to callers.
func (b Branch) Values() map[string]any {
	out := make(map[string]any, len(b))
	for key, v := range b {
		switch v := v.(type) {
		case Branch:
			out[key] = v.Values()
		case Leaf:
			out[key] = int64(v)
		}
	}
	return out
}

// Normalize divides every leaf by denom, converting a running sum back
// into an average. Unranked (-1) leaves are divided like any other value,
// so a fractional negative average can surface when only some of the
// contributing rows were unranked.
func (b Branch) Normalize(denom float64) map[string]any {
	out := make(map[string]any, len(b))
	for key, v := range b {
		switch v := v.(type) {
		case Branch:
			out[key] = v.Normalize(denom)
		case Leaf:
			out[key] = float64(v) / denom
		}
	}
	return out
}
