package align

import "github.com/abhisek/sentcraft/internal/item"

// Batch is the outcome of PrepareMany.
type Batch struct {
	Accepted []item.RuntimeItem
	Errors   []error
}

// PrepareMany normalizes every item, isolating per-item failures. In strict
// mode the first failure is returned immediately along with the items
// accepted so far.
func PrepareMany(items []item.Authored, strict bool) (Batch, error) {
	var b Batch
	for _, a := range items {
		r, err := NormalizeToRuntime(a)
		if err != nil {
			if strict {
				return b, err
			}
			b.Errors = append(b.Errors, err)
			continue
		}
		b.Accepted = append(b.Accepted, r)
	}
	return b, nil
}
