package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// session
	"session.started":   {},
	"session.completed": {},
	"session.reset":     {},
	"session.restored":  {},

	// scene
	"scene.started":   {},
	"scene.completed": {},

	// task
	"task.started":   {},
	"task.completed": {},

	// zone
	"zone.completed":  {},
	"zone.overridden": {},
	"zone.reset":      {},

	// action
	"action.dispatched": {},
	"action.rejected":   {},

	// mechanic
	"mechanic.completed": {},
	"mechanic.reset":     {},

	// snapshot
	"snapshot.saved": {},

	// operator
	"operator.override": {},
	"operator.reset":    {},
	"operator.jump":     {},

	// telemetry
	"telemetry.connected":    {},
	"telemetry.disconnected": {},
	"telemetry.error":        {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
