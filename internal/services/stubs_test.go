package services

import (
	"encoding/json"
	"errors"
	"sync"

	"inkwell/internal/models"
)

// memStore is an in-memory Storage used by service tests. Saves can be
// forced to fail to exercise rollback paths.
type memStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	failSaves bool
	saves     map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		data:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

func (m *memStore) Save(key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errors.New("disk full")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	m.saves[key]++
	return nil
}

func (m *memStore) Load(key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) setFailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = fail
}

func (m *memStore) saveCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[key]
}

func (m *memStore) seed(key string, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(raw)
}

// persisted unmarshals the stored value for key into dest, failing the
// caller's assertion path when the key is missing
func (m *memStore) persisted(key string, dest interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// collectNotifier records every notification it receives
type collectNotifier struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (n *collectNotifier) Notify(notification models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *collectNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}

func (n *collectNotifier) last() (models.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notifications) == 0 {
		return models.Notification{}, false
	}
	return n.notifications[len(n.notifications)-1], true
}
