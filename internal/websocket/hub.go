package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub bridges redis pub/sub chat channels to websocket clients. Polling
// remains the baseline transport; clients that connect here get pushes
// instead of waiting for the next poll tick.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[string]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

// HandleAdmin subscribes an authenticated admin to the inbox channel.
// Auth rides a token query param because browsers cannot set websocket
// headers.
func (h *Hub) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if isAdmin, _ := claims["is_admin"].(bool); !isAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.serve("chat:admin", conn)
}

// HandleVisitor subscribes a widget client to its own conversation
// channel. Visitors are identified by their opaque widget ID, same as
// the polling endpoints.
func (h *Hub) HandleVisitor(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(r.URL.Query().Get("conversation_id"))
	if err != nil {
		http.Error(w, "Invalid conversation_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.serve("chat:conversation:"+conversationID.String(), conn)
}

func (h *Hub) serve(channel string, conn *websocket.Conn) {
	h.register(channel, conn)

	go func() {
		defer h.unregister(channel, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) register(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[channel] = append(h.connections[channel], conn)

	// First subscriber on a channel starts its pub/sub relay.
	if len(h.connections[channel]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[channel] = cancel
		go h.relay(ctx, channel)
	}

	log.Printf("WebSocket connected: %s (total: %d)", channel, len(h.connections[channel]))
}

func (h *Hub) unregister(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[channel]
	for i, c := range conns {
		if c == conn {
			h.connections[channel] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[channel]) == 0 {
		delete(h.connections, channel)
		if cancel, ok := h.cancelFuncs[channel]; ok {
			cancel()
			delete(h.cancelFuncs, channel)
		}
	}

	log.Printf("WebSocket disconnected: %s", channel)
}

func (h *Hub) relay(ctx context.Context, channel string) {
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(channel, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(channel string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[channel] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
