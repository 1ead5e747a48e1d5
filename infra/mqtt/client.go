package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/core/monitoring"
	"github.com/kilianp07/raildispatch/infra/logger"
)

// Topic suffixes appended to Config.TopicPrefix.
const (
	TopicRequests  = "requests"
	TopicBoarded   = "boarded"
	TopicAlighted  = "alighted"
	TopicEmergency = "emergency"
	TopicPosition  = "position"
	TopicExpired   = "expired"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled      bool            `json:"enabled"`
	Broker       string          `json:"broker"`
	ClientID     string          `json:"client_id"`
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	TopicPrefix  string          `json:"topic_prefix"`
	UseTLS       bool            `json:"use_tls"`
	ClientCert   string          `json:"client_cert"`
	ClientKey    string          `json:"client_key"`
	CABundle     string          `json:"ca_bundle"`
	AuthMethod   string          `json:"auth_method"`
	QoS          map[string]byte `json:"qos"`
	LWTTopic     string          `json:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain"`
	MaxRetries   int             `json:"max_retries"`
	BackoffMS    int             `json:"backoff_ms"`
	IntakeBuffer int             `json:"intake_buffer"`
	TLSConfig    *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = "raildispatch"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "rail"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
	if c.IntakeBuffer == 0 {
		c.IntakeBuffer = 256
	}
}

// Validate checks the connection settings when MQTT is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MaxRetries < 0 || c.BackoffMS < 0 || c.IntakeBuffer < 0 {
		return fmt.Errorf("mqtt retry and buffer settings must not be negative")
	}
	for k, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt qos %q must be 0, 1 or 2", k)
		}
	}
	return nil
}

// Topic returns the full topic for suffix.
func (c Config) Topic(suffix string) string {
	if c.TopicPrefix == "" {
		return suffix
	}
	return c.TopicPrefix + "/" + suffix
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient receives passenger requests and announces train events using
// Eclipse Paho.
type PahoClient struct {
	cli        pahoClient
	cfg        Config
	intake     chan model.Request
	dropped    atomic.Uint64
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the request topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	buf := cfg.IntakeBuffer
	if buf <= 0 {
		buf = 256
	}
	logger := logger.New("mqtt_client")
	pc := &PahoClient{
		cfg:        cfg,
		intake:     make(chan model.Request, buf),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pc.maxRetries < 0 {
		pc.maxRetries = 0
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		topic := cfg.Topic(TopicRequests)
		if token := c.Subscribe(topic, pc.qos(TopicRequests), pc.onRequest); token.Wait() && token.Error() != nil {
			logger.Errorf("subscribe error: %v", token.Error())
			monitoring.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": topic})
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
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

func (p *PahoClient) qos(kind string) byte {
	if q, ok := p.cfg.QoS[kind]; ok {
		return q
	}
	return 0
}

// onRequest decodes a passenger request. Requests are dropped when the intake
// buffer is full so the paho callback never blocks.
func (p *PahoClient) onRequest(_ paho.Client, msg paho.Message) {
	var req model.Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		p.logger.Errorf("failed to decode request: %v", err)
		return
	}
	select {
	case p.intake <- req:
		p.logger.Debugf("received request %s->%s", req.Origin, req.Destination)
	default:
		p.dropped.Add(1)
		p.logger.Warnf("request intake full, dropping %s->%s", req.Origin, req.Destination)
	}
}

// Requests returns the channel of received passenger requests.
func (p *PahoClient) Requests() <-chan model.Request { return p.intake }

// Dropped returns how many requests were discarded because the intake was full.
func (p *PahoClient) Dropped() uint64 { return p.dropped.Load() }

// publish sends payload on the topic for suffix, retrying with exponential
// backoff.
func (p *PahoClient) publish(suffix string, payload []byte) error {
	topic := p.cfg.Topic(suffix)
	qos := p.qos("events")
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published to %s", topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
