// Package mqtt publishes engine telemetry to a broker and accepts
// remote operator commands. Museum and kiosk installs run many engines
// against one broker; everything here is best-effort and the engine
// runs fine with no broker at all.
package mqtt

import (
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps the Paho MQTT client.
type Client struct {
	client paho.Client
	mu     sync.Mutex
}

// BrokerURL returns the broker URL: the explicit config value, the
// MQTT_URL env var, or the local default.
func BrokerURL(configured string) string {
	if configured != "" {
		return configured
	}
	if url := os.Getenv("MQTT_URL"); url != "" {
		return url
	}
	return "tcp://localhost:1883"
}

// NewClient creates a client but does not connect.
func NewClient(brokerURL, clientID string) *Client {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return &Client{client: paho.NewClient(opts)}
}

// Connect attempts to connect with a bounded wait.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &ConnectTimeoutError{}
	}
	return token.Error()
}

// Publish sends a payload at QoS 1 without waiting for completion.
func (c *Client) Publish(topic string, payload []byte) {
	c.client.Publish(topic, 1, false, payload)
}

// Subscribe registers a handler for a topic.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(10 * time.Second) {
		return &SubscribeTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Disconnect(1000)
}

// IsConnected reports broker connectivity.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates the connect attempt timed out.
type ConnectTimeoutError struct{}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout"
}

// SubscribeTimeoutError indicates a subscription timed out.
type SubscribeTimeoutError struct {
	Topic string
}

func (e *SubscribeTimeoutError) Error() string {
	return "mqtt subscribe timeout: " + e.Topic
}
