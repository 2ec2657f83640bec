package access

import (
	"context"

	"github.com/alfosobral/UniParking/core/alloc"
	"github.com/alfosobral/UniParking/core/model"
	"github.com/alfosobral/UniParking/core/spotindex"
	"github.com/alfosobral/UniParking/internal/feed"
)

// EventRepo records inbound sensor events and answers dedup queries. The
// check-and-insert must be atomic: two concurrent runs for the same event id
// may both call SaveIfUnseen, and exactly one must observe saved=true.
type EventRepo interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	// SaveIfUnseen persists the event unless its id was already recorded.
	// It reports whether this call created the record.
	SaveIfUnseen(ctx context.Context, ev model.SensorEvent) (bool, error)
}

// AuthResolver answers whether a normalized plate may enter and which
// vehicle class it belongs to. ok=false means deny.
type AuthResolver interface {
	Resolve(ctx context.Context, plate string) (class model.VehicleClass, ok bool, err error)
}

// Actuator publishes outbound barrier commands. It must fail loudly when the
// transport is down, never drop silently.
type Actuator interface {
	PublishCommand(ctx context.Context, cmd model.Command) error
}

// Allocator resolves a vehicle class to a concrete spot assignment.
type Allocator interface {
	Allocate(ctx context.Context, req alloc.Request) alloc.Result
}

// Notifier fans a message out to the observers of a topic. *feed.Hub is the
// production implementation.
type Notifier interface {
	Publish(topic string, msg feed.Message)
}

// GateLocator maps a device to its reference point on the facility plane,
// used as the origin of nearest-spot queries.
type GateLocator func(deviceID string) spotindex.Point
