package service

import (
	"context"
	"sync"
	"testing"

	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	topic string
	key   int64
	event map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(topic string, key int64, event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]interface{})
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: m})
}

func (p *recordingPublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func seedUser(t *testing.T, store *memory.Store, username, phone string, credits int64) *models.User {
	t.Helper()
	user := &models.User{Username: username, Phone: phone, PasswordHash: "hash", Credits: credits}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func balanceOf(t *testing.T, store *memory.Store, userID int64) int64 {
	t.Helper()
	user, err := store.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.Credits
}
