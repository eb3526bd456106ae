// Package stream fans view-state transitions out to websocket subscribers,
// across processes when redis is configured.
package stream

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tracker-parent/internal/logger"
)

const (
	channelPrefix  = "trackview:"
	channelSuffix  = ":state"
	channelPattern = channelPrefix + "*" + channelSuffix
)

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	done    chan struct{}
}

type Client struct {
	Topic string
	Send  chan []byte
}

// NewHub delivers locally when redisClient is nil. Otherwise every broadcast
// goes through redis and comes back through a pattern subscription, so all
// hubs sharing the redis see it.
func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	h := &Hub{
		log:     logger.OrNop(log),
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}
	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx := context.Background()
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Warn("redis subscribe failed, delivering locally", zap.Error(err))
		_ = pubsub.Close()
		close(h.done)
		return h
	}
	h.redis = redisClient
	h.pubsub = pubsub
	go h.forward()
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// DisconnectAll unregisters every subscriber. Their Send channels close, so
// connected sockets end.
func (h *Hub) DisconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, topicClients := range h.clients {
		for client := range topicClients {
			close(client.Send)
		}
		delete(h.clients, topic)
	}
}

// Broadcast sends payload to every subscriber of topic. Slow subscribers
// drop messages rather than block the sender.
func (h *Hub) Broadcast(topic string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", zap.String("topic", topic), zap.Error(err))
	}
	h.deliver(topic, payload)
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		topic := topicFromChannel(msg.Channel)
		if topic == "" {
			continue
		}
		h.deliver(topic, []byte(msg.Payload))
	}
}

func (h *Hub) subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Close stops the redis subscription.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func redisChannel(topic string) string {
	return channelPrefix + topic + channelSuffix
}

func topicFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
