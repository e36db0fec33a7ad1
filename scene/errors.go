package scene

import "errors"

// ErrEntityExists is returned by CreateEntityWithId when the id is
// already occupied.
var ErrEntityExists = errors.New("scene: entity already exists")

// ErrEntityNotFound is returned when an operation names an id that is not
// present in the scene.
var ErrEntityNotFound = errors.New("scene: entity not found")

// ErrComponentNotFound is returned when an operation names a component
// key that is not attached to the entity.
var ErrComponentNotFound = errors.New("scene: component not found")

// ErrIdSpaceExhausted is returned by NextFreeId when every replicable id
// is already in use. The engine surfaces this as ResourceExhaustion.
var ErrIdSpaceExhausted = errors.New("scene: replicable id space exhausted")

// ErrLocalOnlyId is returned when a replicable-only operation is asked to
// operate on a local-only id.
var ErrLocalOnlyId = errors.New("scene: id carries the local-only bit")
