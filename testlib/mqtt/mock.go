// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"encoding/json"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Mock mqtt client that routes published messages to subscribers in memory.
type MockClient struct {
	mu       sync.Mutex
	handlers map[string]pahomqtt.MessageHandler
	// Error returned by Connect and Subscribe, if set.
	Err error
}

func (m *MockClient) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	m.Deliver(topic, data)
}

func (m *MockClient) Connect() error {
	return m.Err
}

func (m *MockClient) Disconnect() {
	// Do nothing
}

func (m *MockClient) Subscribe(topic string, callback pahomqtt.MessageHandler) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string]pahomqtt.MessageHandler)
	}
	m.handlers[topic] = callback
	return nil
}

// Check if a handler is subscribed to the given topic.
func (m *MockClient) Subscribed(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[topic]
	return ok
}

// Hand the raw payload to the handler subscribed to the topic, if any.
func (m *MockClient) Deliver(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return
	}
	handler(nil, &message{topic: topic, payload: payload})
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 2 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
