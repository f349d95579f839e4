package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/scrambledgregs/fleet-sub001/core/model"
	"github.com/scrambledgregs/fleet-sub001/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT notifier.
type Config struct {
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	QoS        byte        `json:"qos"`
	TLSConfig  *tls.Config `json:"-"`
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("notify: broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes committed assignments to per-technician topics so
// field clients can refresh their day view. It implements
// dispatch.AssignmentNotifier.
type MQTTNotifier struct {
	cli pahoClient
	qos byte
	log logger.Logger
}

// NewMQTTNotifier connects to the broker and returns a ready notifier.
func NewMQTTNotifier(cfg Config) (*MQTTNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("notify")
	opts.OnConnect = func(_ paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTNotifier{cli: c, qos: cfg.QoS, log: log}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "dispatch-" + uuid.NewString()
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

type assignmentMessage struct {
	JobID     string    `json:"job_id"`
	Address   string    `json:"address"`
	JobType   string    `json:"job_type"`
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NotifyAssignment publishes the assignment on dispatch/tech/<id>/assignments.
func (n *MQTTNotifier) NotifyAssignment(ctx context.Context, techID string, job model.Job, note string) error {
	msg := assignmentMessage{
		JobID:     job.ID,
		Address:   job.Address,
		JobType:   job.JobType,
		Note:      note,
		Timestamp: time.Now().UnixMilli(),
	}
	if job.HasWindow() {
		msg.Start = job.Window.Start
		msg.End = job.Window.End
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("dispatch/tech/%s/assignments", techID)
	token := n.cli.Publish(topic, n.qos, false, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		n.log.Errorf("publish to %s failed: %v", topic, err)
		return err
	}
	n.log.Infof("notified %s about job %s", techID, job.ID)
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
