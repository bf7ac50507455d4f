package archetype

import "github.com/google/uuid"

// archetypeID is a per-instance identifier minted once at construction.
// It never appears in the persisted wire format (§4.5 of the
// specification this package implements already fully describes that
// layout without any notion of identity); it exists purely for log
// correlation. Persistence recognises "this child slot targets the
// archetype currently being walked" by pointer identity, not by this
// id.
type archetypeID uuid.UUID

func newArchetypeID() archetypeID {
	return archetypeID(uuid.New())
}

func (id archetypeID) String() string {
	return uuid.UUID(id).String()
}
