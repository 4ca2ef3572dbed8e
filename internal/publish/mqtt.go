// Package publish mirrors accepted snapshots to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/i474232898/microdashboard/internal/weather"
)

const defaultNetworkTimeout = 5 * time.Second

// ErrNotConnected is returned while the broker link is down; the snapshot is
// dropped rather than queued.
var ErrNotConnected = errors.New("mqtt not connected")

// Config selects the broker and topic layout.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Timeout     time.Duration
}

// MQTT publishes retained JSON snapshots under <prefix>/<client>/weather and
// <prefix>/<client>/forecast.
type MQTT struct {
	log     *zap.SugaredLogger
	m       mqtt.Client
	timeout time.Duration

	topicWeather  string
	topicForecast string
}

// NewMQTT prepares a client. Call Connect before publishing.
func NewMQTT(cfg Config, log *zap.SugaredLogger) *MQTT {
	timeout := cfg.Timeout
	if timeout < time.Second {
		timeout = defaultNetworkTimeout
	}
	opt := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetCleanSession(true).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(timeout * 3).
		SetKeepAlive(timeout * 6).
		SetMaxReconnectInterval(time.Minute).
		SetOrderMatters(false).
		SetPingTimeout(timeout).
		SetWriteTimeout(timeout)
	return newMQTT(mqtt.NewClient(opt), cfg, timeout, log)
}

func newMQTT(c mqtt.Client, cfg Config, timeout time.Duration, log *zap.SugaredLogger) *MQTT {
	base := fmt.Sprintf("%s/%s", cfg.TopicPrefix, cfg.ClientID)
	return &MQTT{
		log:           log,
		m:             c,
		timeout:       timeout,
		topicWeather:  base + "/weather",
		topicForecast: base + "/forecast",
	}
}

// Connect starts the connection. With connect-retry enabled a broker that is
// down is not an error; the client keeps retrying in the background.
func (p *MQTT) Connect() error {
	t := p.m.Connect()
	if !t.WaitTimeout(p.timeout) {
		p.log.Warnw("publish: mqtt broker not reachable yet, retrying in background")
		return nil
	}
	return errors.Annotate(t.Error(), "mqtt connect")
}

// PublishWeather sends an accepted weather snapshot.
func (p *MQTT) PublishWeather(s weather.WeatherSnapshot) error {
	return p.publish(p.topicWeather, s)
}

// PublishForecast sends an accepted forecast snapshot.
func (p *MQTT) PublishForecast(s weather.ForecastSnapshot) error {
	return p.publish(p.topicForecast, s)
}

// publish hands the message to the client and returns. Delivery is confirmed
// in the background so a slow broker never holds up the caller.
func (p *MQTT) publish(topic string, v interface{}) error {
	if !p.m.IsConnectionOpen() {
		return errors.Annotate(ErrNotConnected, "publish "+topic)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Annotatef(err, "encode %s", topic)
	}
	t := p.m.Publish(topic, 1, true, payload)
	go func() {
		if err := p.tokenWait(t, "publish "+topic); err != nil {
			p.log.Warnw("publish: delivery failed", "topic", topic, "error", err)
		}
	}()
	return nil
}

func (p *MQTT) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(p.timeout) {
		return errors.Errorf("%s timeout", tag)
	}
	if err := t.Error(); err != nil {
		return errors.Annotate(err, tag)
	}
	return nil
}

// Close disconnects, letting in-flight work finish for up to 250ms.
func (p *MQTT) Close() {
	p.m.Disconnect(250)
}
