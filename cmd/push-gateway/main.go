// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"orderflow/internal/pkg/bootstrap"
	"orderflow/internal/pkg/constants"
	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/mq"
	"orderflow/internal/service/order/domain"
)

const (
	serviceName = "push-gateway"
	servicePort = 8088

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	nodeID   = "push-gateway-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
			return true
		},
	}
)

// Hub 维护所有活跃的连接，按 customerID 路由订单事件
type Hub struct {
	clients    map[string]map[*Client]struct{} // customerID -> 该客户的所有连接
	register   chan *Client
	unregister chan *Client
	events     chan domain.OrderLifecycleEvent
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan domain.OrderLifecycleEvent, 256),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.customerID] == nil {
				h.clients[client.customerID] = make(map[*Client]struct{})
			}
			h.clients[client.customerID][client] = struct{}{}
			log.Printf("client %s registered on node %s", client.customerID, nodeID)
		case client := <-h.unregister:
			if conns, ok := h.clients[client.customerID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.customerID)
					}
				}
			}
			log.Printf("client %s unregistered", client.customerID)
		case event := <-h.events:
			conns, ok := h.clients[event.CustomerID]
			if !ok {
				continue // 客户不在本节点，丢弃（fire-and-forget）
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			for client := range conns {
				select {
				case client.send <- data:
				default:
					// 发送缓冲满说明连接已经写不动了，踢掉
					delete(conns, client)
					close(client.send)
				}
			}
		}
	}
}

// Client 是一个 WebSocket 连接的代表
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	customerID string
}

// writePump 把 send channel 中的消息写入 websocket，并周期性发心跳。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端的控制消息（心跳应答等），连接断开时触发注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		http.Error(w, "customerId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), customerID: customerID}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// consumeOrderEvents 消费 order-events topic，把事件交给 hub 路由。
func consumeOrderEvents(ctx context.Context, hub *Hub, brokers []string) {
	reader := mq.NewKafkaReader(brokers, constants.OrderEventsTopic, nodeID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("could not read order event: %v", err)
			continue
		}

		var event domain.OrderLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("failed to unmarshal order event: %v", err)
			continue
		}
		msgCtx := mq.ExtractTraceContext(ctx, msg.Headers)
		logger.Ctx(msgCtx).Debug().
			Str("order_id", event.OrderID).
			Str("status", string(event.Status)).
			Msg("routing order event")

		select {
		case hub.events <- event:
		default:
			// hub 忙不过来就丢弃，推送没有投递保证
		}
	}
}

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	hub := newHub()
	go hub.run()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	go consumeOrderEvents(consumerCtx, hub, cfg.Infra.Kafka.Brokers)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, w, r)
			})
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
		},
	})
}
