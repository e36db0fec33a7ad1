package scene

// ChangeKind identifies what kind of mutation a Change notification
// describes.
type ChangeKind int

const (
	ComponentChanged ChangeKind = iota
	ComponentAdded
	ComponentRemoved
	EntityCreated
	EntityRemoved
	// EntityIdChanged reports that ChangeEntityId relocated an entity.
	// It is not one of the five wire-facing mutation kinds but the
	// engine still needs to hear about it to relocate a peer's
	// tracking state (see the client side of the id-collision
	// protocol).
	EntityIdChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ComponentChanged:
		return "component_changed"
	case ComponentAdded:
		return "component_added"
	case ComponentRemoved:
		return "component_removed"
	case EntityCreated:
		return "entity_created"
	case EntityRemoved:
		return "entity_removed"
	case EntityIdChanged:
		return "entity_id_changed"
	default:
		return "unknown"
	}
}

// Change is the notification synchronously delivered to every subscriber
// on every scene mutation.
type Change struct {
	Kind         ChangeKind
	EntityId     EntityId
	ComponentKey *ComponentKey
	Origin       ChangeOrigin

	// OldEntityId and NewEntityId are populated only for
	// EntityIdChanged; EntityId mirrors NewEntityId in that case.
	OldEntityId EntityId
	NewEntityId EntityId
}

// ChangeHandler receives every Change synchronously, on the caller's
// goroutine, in the order mutations happened.
type ChangeHandler func(Change)
