// Package mqtt provides the pub/sub transport of the gateway: the Paho
// client wrapper, the sensor-event ingress consumer and the actuator
// command publisher.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	QoS        byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "uniparking-gateway"
	}
	if c.QoS > 2 {
		c.QoS = 1
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// Client is the transport surface the gateway needs from MQTT.
type Client interface {
	IsConnected() bool
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler paho.MessageHandler) error
	Close()
}

// PahoClient implements Client using Eclipse Paho with auto-reconnect.
type PahoClient struct {
	cli paho.Client
	qos byte
}

// NewPahoClient connects to the broker described by cfg.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", cfg.Broker, token.Error())
	}
	return &PahoClient{cli: cli, qos: cfg.QoS}, nil
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CABundle != "" {
		ca, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CABundle)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// IsConnected reports whether the underlying client holds a live session.
func (c *PahoClient) IsConnected() bool { return c.cli.IsConnected() }

// Publish sends the payload to the topic and waits for the token.
func (c *PahoClient) Publish(topic string, payload []byte) error {
	token := c.cli.Publish(topic, c.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers the handler on the topic.
func (c *PahoClient) Subscribe(topic string, handler paho.MessageHandler) error {
	token := c.cli.Subscribe(topic, c.qos, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects gracefully.
func (c *PahoClient) Close() {
	if c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
