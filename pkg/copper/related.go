package copper

import (
	"context"
	"fmt"
)

// getRelated fetches the record named by the entity's `<attr>_id` field. An
// unset or null id yields nil without touching the network; otherwise a
// fresh detail fetch is made every call so the result is never stale.
func getRelated[T Entityer](ctx context.Context, e *Entity, attr string, m *Manager[T]) (T, error) {
	var zero T

	id, ok := e.Int(attr + "_id")
	if !ok || id == 0 {
		return zero, nil
	}

	return m.Get(ctx, id)
}

// getRelatedListOnly is getRelated for list-only resource kinds, which are
// served from the manager's id index rather than a detail fetch.
func getRelatedListOnly[T Entityer](ctx context.Context, e *Entity, attr string, m *ListOnlyManager[T]) (T, error) {
	var zero T

	id, ok := e.Int(attr + "_id")
	if !ok || id == 0 {
		return zero, nil
	}

	return m.Get(ctx, id)
}

// assignRelated guards setRelated against typed-nil records, which would
// otherwise slip past an interface nil check.
func assignRelated[T interface {
	Reference
	comparable
}](e *Entity, attr string, related T, wantTag string) error {
	var zero T
	if related == zero {
		return fmt.Errorf("%w: %s.%s", ErrNilRelated, e.rt.Name, attr)
	}

	return setRelated(e, attr, related, wantTag)
}

// setRelated assigns the entity's `<attr>_id` field from a related record.
// The record must be persisted and of the expected kind.
func setRelated(e *Entity, attr string, related Reference, wantTag string) error {
	if related == nil {
		return fmt.Errorf("%w: %s.%s", ErrNilRelated, e.rt.Name, attr)
	}

	if tag := related.ReferenceTag(); tag != wantTag {
		return fmt.Errorf("%w: %s.%s wants a %s, got a %s",
			ErrWrongRelatedType, e.rt.Name, attr, wantTag, tag)
	}

	id := related.ReferenceID()
	if id == 0 {
		return fmt.Errorf("%w: %s.%s", ErrRelatedWithoutID, e.rt.Name, attr)
	}

	return e.Set(attr+"_id", id)
}
