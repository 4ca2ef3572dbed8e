package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/microdashboard/internal/weather"
)

type mockMsg struct {
	topic    string
	retained bool
	payload  []byte
}

type mqttMock struct {
	pub        []mockMsg
	publishErr error
	stalled    bool
	// down reports the link as still connecting
	down bool
}

func (m *mqttMock) Disconnect(uint)        {}
func (m *mqttMock) IsConnected() bool      { return true }
func (m *mqttMock) IsConnectionOpen() bool { return !m.down }
func (m *mqttMock) Connect() mqtt.Token    { return mockToken{stalled: m.stalled} }

func (m *mqttMock) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.pub = append(m.pub, mockMsg{topic: topic, retained: retained, payload: payload.([]byte)})
	return mockToken{err: m.publishErr, stalled: m.stalled}
}

func (m *mqttMock) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (m *mqttMock) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (m *mqttMock) Unsubscribe(...string) mqtt.Token        { panic("not implemented") }
func (m *mqttMock) AddRoute(string, mqtt.MessageHandler)    { panic("not implemented") }
func (m *mqttMock) OptionsReader() mqtt.ClientOptionsReader { panic("not implemented") }

type mockToken struct {
	err     error
	stalled bool
}

func (t mockToken) Wait() bool                     { return !t.stalled }
func (t mockToken) WaitTimeout(time.Duration) bool { return !t.stalled }
func (t mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.stalled {
		close(ch)
	}
	return ch
}
func (t mockToken) Error() error { return t.err }

func newTestMQTT(m *mqttMock) *MQTT {
	p, _ := newObservedMQTT(m)
	return p
}

func newObservedMQTT(m *mqttMock) (*MQTT, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := Config{ClientID: "boot-1", TopicPrefix: "microdashboard"}
	return newMQTT(m, cfg, time.Second, zap.New(core).Sugar()), logs
}

func TestPublishWeather(t *testing.T) {
	m := &mqttMock{}
	p := newTestMQTT(m)

	s := weather.WeatherSnapshot{Valid: true, TemperatureC: 12.5, Code: 3}
	require.NoError(t, p.PublishWeather(s))
	require.Len(t, m.pub, 1)
	assert.Equal(t, "microdashboard/boot-1/weather", m.pub[0].topic)
	assert.True(t, m.pub[0].retained)

	var got weather.WeatherSnapshot
	require.NoError(t, json.Unmarshal(m.pub[0].payload, &got))
	assert.Equal(t, 12.5, got.TemperatureC)
	assert.Equal(t, 3, got.Code)
}

func TestPublishForecastTopic(t *testing.T) {
	m := &mqttMock{}
	p := newTestMQTT(m)
	require.NoError(t, p.PublishForecast(weather.ForecastSnapshot{Valid: true, Sunrise: "07:12"}))
	assert.Equal(t, "microdashboard/boot-1/forecast", m.pub[0].topic)
	assert.Contains(t, string(m.pub[0].payload), `"sunrise":"07:12"`)
}

func TestPublishDeliveryErrorsAreLogged(t *testing.T) {
	p, logs := newObservedMQTT(&mqttMock{publishErr: errors.New("broker refused")})
	require.NoError(t, p.PublishWeather(weather.WeatherSnapshot{Valid: true}))
	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "broker refused")

	p, logs = newObservedMQTT(&mqttMock{stalled: true})
	require.NoError(t, p.PublishWeather(weather.WeatherSnapshot{Valid: true}))
	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "timeout")
}

func TestPublishSkippedWhileDisconnected(t *testing.T) {
	m := &mqttMock{down: true}
	p := newTestMQTT(m)

	err := p.PublishForecast(weather.ForecastSnapshot{Valid: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
	assert.Empty(t, m.pub)
}

func TestConnectStalledIsNotFatal(t *testing.T) {
	p := newTestMQTT(&mqttMock{stalled: true})
	assert.NoError(t, p.Connect())
	assert.NoError(t, newTestMQTT(&mqttMock{}).Connect())
}
