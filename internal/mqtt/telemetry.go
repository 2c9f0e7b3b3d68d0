package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/diagramquest/engine/internal/events"
)

// OperatorHandler is implemented by the session layer for remote
// operator commands arriving over MQTT.
type OperatorHandler interface {
	OverrideZone(zoneID string) error
	ResetZone(zoneID string) error
	JumpToScene(sceneID string) error
}

// OperatorCommand is the payload accepted on the operator topic.
type OperatorCommand struct {
	Command string `json:"command"` // override_zone, reset_zone, jump_scene
	ZoneID  string `json:"zone_id,omitempty"`
	SceneID string `json:"scene_id,omitempty"`
}

// Telemetry mirrors the engine event feed onto
// diagramquest/<game>/events/<name> and listens for operator commands
// on diagramquest/<game>/operator.
type Telemetry struct {
	client *Client
	gameID string
	sub    events.Subscriber
	done   chan struct{}
}

// Start connects, subscribes the operator topic and begins forwarding
// events. The returned error means no broker; callers treat that as a
// degraded mode, not a failure.
func Start(brokerURL, gameID string, ops OperatorHandler) (*Telemetry, error) {
	t := &Telemetry{
		client: NewClient(brokerURL, "diagramquest-"+gameID),
		gameID: gameID,
		done:   make(chan struct{}),
	}

	if err := t.client.Connect(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}

	if err := t.client.Subscribe(t.operatorTopic(), t.operatorMessageHandler(ops)); err != nil {
		t.client.Disconnect()
		return nil, fmt.Errorf("mqtt subscribe failed: %w", err)
	}

	t.sub = events.Subscribe()
	go t.pump()

	events.Emit("info", "telemetry.connected", "", map[string]interface{}{
		"broker": brokerURL,
	})
	return t, nil
}

func (t *Telemetry) operatorTopic() string {
	return fmt.Sprintf("diagramquest/%s/operator", t.gameID)
}

func (t *Telemetry) eventTopic(name string) string {
	return fmt.Sprintf("diagramquest/%s/events/%s", t.gameID, name)
}

// pump forwards broadcast events to the broker until Stop.
func (t *Telemetry) pump() {
	for {
		select {
		case <-t.done:
			return
		case e, ok := <-t.sub:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			t.client.Publish(t.eventTopic(e.Name), data)
		}
	}
}

func (t *Telemetry) operatorMessageHandler(ops OperatorHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var cmd OperatorCommand
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("ignoring malformed operator command")
			return
		}
		if ops == nil {
			return
		}

		var err error
		switch cmd.Command {
		case "override_zone":
			err = ops.OverrideZone(cmd.ZoneID)
		case "reset_zone":
			err = ops.ResetZone(cmd.ZoneID)
		case "jump_scene":
			err = ops.JumpToScene(cmd.SceneID)
		default:
			err = fmt.Errorf("unknown command: %s", cmd.Command)
		}
		if err != nil {
			events.Emit("warn", "telemetry.error", "operator command failed", map[string]interface{}{
				"command": cmd.Command,
				"error":   err.Error(),
			})
		}
	}
}

// IsConnected reports broker connectivity.
func (t *Telemetry) IsConnected() bool {
	return t.client.IsConnected()
}

// Stop unsubscribes from the event feed and disconnects.
func (t *Telemetry) Stop() {
	close(t.done)
	events.Unsubscribe(t.sub)
	t.client.Disconnect()
	events.Emit("info", "telemetry.disconnected", "", nil)
}
