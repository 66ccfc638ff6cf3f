package stats

import "fmt"

// Op combines two leaf values during a merge.
type Op func(a, b int64) int64

// Add is the default merge operator.
func Add(a, b int64) int64 { return a + b }

// SchemaMismatchError reports two merge operands diverging in shape. Path
// identifies the offending key, dot-joined from the root.
type SchemaMismatchError struct {
	Path   string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch at %q: %s", e.Path, e.Reason)
}

// Merge combines two same-shaped trees leaf by leaf. The left operand
// defines the authoritative shape: every key in a must exist in b with the
// same node kind, while keys only present in b are ignored. Branches
// recurse; leaves are combined with op (Add when nil).
func Merge(a, b Branch, op Op) (Branch, error) {
	if op == nil {
		op = Add
	}
	return mergeBranch(a, b, op, "")
}

func mergeBranch(a, b Branch, op Op, path string) (Branch, error) {
	out := make(Branch, len(a))
	for key, av := range a {
		keyPath := joinPath(path, key)
		bv, ok := b[key]
		if !ok {
			return nil, &SchemaMismatchError{Path: keyPath, Reason: "key missing from right operand"}
		}

		switch av := av.(type) {
		case Branch:
			bb, ok := bv.(Branch)
			if !ok {
				return nil, &SchemaMismatchError{Path: keyPath, Reason: "expected a nested mapping on both sides"}
			}
			child, err := mergeBranch(av, bb, op, keyPath)
			if err != nil {
				return nil, err
			}
			out[key] = child
		case Leaf:
			bl, ok := bv.(Leaf)
			if !ok {
				return nil, &SchemaMismatchError{Path: keyPath, Reason: "expected a numeric leaf on both sides"}
			}
			out[key] = Leaf(op(int64(av), int64(bl)))
		default:
			return nil, &SchemaMismatchError{Path: keyPath, Reason: fmt.Sprintf("unsupported node type %T", av)}
		}
	}
	return out, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
