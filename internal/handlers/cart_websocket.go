package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"flipcart_back_end/internal/cache"
	"flipcart_back_end/internal/services"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// CartSync pousse l'état du panier aux clients connectés (web/app)
// à chaque évènement publié sur cart:<userId>.
type CartSync struct {
	redis    *redis.Client
	carts    *services.CartService
	upgrader websocket.Upgrader
}

func NewCartSync(client *redis.Client, carts *services.CartService, allowedOrigins []string) *CartSync {
	return &CartSync{
		redis: client,
		carts: carts,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// GET /cart/:userId/ws
func (s *CartSync) CartWebSocket(c *gin.Context) {
	if s.redis == nil {
		respondMessage(c, http.StatusNotFound, "realtime cart sync is not enabled")
		return
	}
	userID := c.Param("userId")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// s'abonner avant l'upgrade pour ne rater aucun évènement
	pubsub := cache.SubscribeCart(ctx, s.redis, userID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		respondError(c, &services.Error{Kind: services.KindUnavailable, Message: "realtime cart sync is unavailable", Err: err})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	// lecture pour détecter la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.write(conn, gin.H{"type": "connected", "userId": userID}); err != nil {
		return
	}

	ch := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := s.write(conn, s.snapshot(ctx, userID, msg.Payload)); err != nil {
				slog.Debug("websocket write", "user_id", userID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *CartSync) snapshot(ctx context.Context, userID, event string) gin.H {
	if event == cache.CartEventDeleted {
		return gin.H{"type": "cart_deleted"}
	}
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if services.IsNotFound(err) {
			return gin.H{"type": "cart_deleted"}
		}
		return gin.H{"type": "error", "message": "failed to load cart"}
	}
	return gin.H{"type": "cart_" + event, "cart": cart}
}

func (s *CartSync) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
