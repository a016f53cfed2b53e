package game_object

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/engine/input"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
)

// Handle identifies a game object for its whole life. Handles are never reused.
type Handle uint64

// NoHandle is the zero handle; no object ever has it.
const NoHandle Handle = 0

// Kind is the closed set of object kinds.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
	KindBullet
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "Player"
	case KindEnemy:
		return "Enemy"
	case KindBullet:
		return "Bullet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Registry is the part of the Manager behaviors may call back into while updating.
type Registry interface {
	// Create queues a new object; it is initialized at the start of the next Update.
	Create(kind Kind, parent Handle) Handle

	// RegisterHit asks for h to be tested against its target kind in the next PostUpdate.
	RegisterHit(h Handle)

	// RegisterDelete removes h from the live set now and releases it after the delete delay.
	RegisterDelete(h Handle)

	// Object returns a live object or one still waiting to be initialized.
	Object(h Handle) (GameObject, bool)
}

// Context carries everything a behavior may use. It is built by the Manager and passed explicitly
// to every behavior call.
type Context struct {
	Input   input.Input
	Shapes  model.ShapeContainer
	Objects Registry
	Logger  *slog.Logger
}

// Behavior is the set of capabilities every object kind provides.
type Behavior interface {
	// Initialize places the object and picks its shape and colour.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - obj: the object being initialized
	//
	// Returns:
	//   - error: a shape upload error
	Initialize(ctx *Context, obj GameObject) error

	// Update advances the object by one frame.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - obj: the object
	Update(ctx *Context, obj GameObject)

	// OnHit reacts to a collision with other.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - obj: the object
	//   - other: the object it collided with
	OnHit(ctx *Context, obj, other GameObject)

	// HitTargetKind returns the kind this object's registered hits are tested against.
	//
	// Returns:
	//   - Kind: the target kind
	//   - bool: false if the object never registers hits
	HitTargetKind() (Kind, bool)
}

// behaviors maps each kind onto its stateless behavior.
var behaviors = map[Kind]Behavior{
	KindPlayer: playerBehavior{},
	KindEnemy:  enemyBehavior{},
	KindBullet: bulletBehavior{},
}

// BehaviorOf returns the behavior of a kind.
//
// Parameters:
//   - k: the kind
//
// Returns:
//   - Behavior: the behavior
//   - bool: false for a kind outside the closed set
func BehaviorOf(k Kind) (Behavior, bool) {
	b, ok := behaviors[k]
	return b, ok
}
