package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/pkg/utils"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ScoreboardMessage 记分板推送消息
type ScoreboardMessage struct {
	Type        string                `json:"type"`
	GameID      int64                 `json:"gameId"`
	GamePlayers []database.GamePlayer `json:"gamePlayers"`
	Rounds      []database.Round      `json:"rounds"`
}

// peerConn 封装 WebSocket 连接和写锁，保证并发写入安全
type peerConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// sendJSON 安全发送 JSON 消息
func (p *peerConn) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON序列化失败", "error", err)
		return
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("WebSocket写入失败", "error", err)
	}
}

// LiveHub 按游戏维度管理记分板订阅连接
// 回合和分数每次变动后向订阅者推送最新记分板
type LiveHub struct {
	mu    sync.RWMutex
	peers map[int64]map[*peerConn]bool
}

// NewLiveHub 创建记分板推送中心
func NewLiveHub() *LiveHub {
	return &LiveHub{peers: make(map[int64]map[*peerConn]bool)}
}

// register 注册订阅连接
func (h *LiveHub) register(gameID int64, peer *peerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.peers[gameID] == nil {
		h.peers[gameID] = make(map[*peerConn]bool)
	}
	h.peers[gameID][peer] = true
}

// unregister 移除订阅连接
func (h *LiveHub) unregister(gameID int64, peer *peerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.peers[gameID], peer)
	if len(h.peers[gameID]) == 0 {
		delete(h.peers, gameID)
	}
}

// snapshot 构建当前记分板快照
func (h *LiveHub) snapshot(ctx context.Context, gameID int64) (*ScoreboardMessage, error) {
	players, err := database.GetGamePlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	rounds, err := database.GetRoundsByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return &ScoreboardMessage{
		Type:        "scoreboard",
		GameID:      gameID,
		GamePlayers: players,
		Rounds:      rounds,
	}, nil
}

// NotifyGame 向该游戏的全部订阅者推送最新记分板
// 无人订阅时不查询数据库
func (h *LiveHub) NotifyGame(ctx context.Context, gameID int64) {
	h.mu.RLock()
	count := len(h.peers[gameID])
	h.mu.RUnlock()
	if count == 0 {
		return
	}

	msg, err := h.snapshot(ctx, gameID)
	if err != nil {
		slog.Error("构建记分板快照失败", "gameId", gameID, "error", err)
		return
	}

	h.mu.RLock()
	peers := make([]*peerConn, 0, count)
	for peer := range h.peers[gameID] {
		peers = append(peers, peer)
	}
	h.mu.RUnlock()

	for _, peer := range peers {
		peer.sendJSON(msg)
	}
}

// Serve 处理 GET /api/games/{gameId}/live
// 升级为 WebSocket 并持续推送记分板
func (h *LiveHub) Serve(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket升级失败", "error", err)
		return
	}
	defer func(conn *websocket.Conn) { _ = conn.Close() }(conn)

	// 设置消息大小限制
	conn.SetReadLimit(4 * 1024)

	// 设置读取超时
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		slog.Error("设置读取超时失败", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			slog.Error("设置读取超时失败", "error", err)
		}
		return nil
	})

	slog.Info("记分板连接已建立", "gameId", game.ID, "ip", utils.GetClientIP(r))

	peer := &peerConn{conn: conn}
	h.register(game.ID, peer)
	defer h.unregister(game.ID, peer)

	// 建立连接后先推一次当前快照
	if msg, err := h.snapshot(r.Context(), game.ID); err == nil {
		peer.sendJSON(msg)
	}

	// 定期发送 ping 保活
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				peer.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, nil)
				peer.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	// 读循环只用于感知断开，收到的消息一律忽略
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			break
		}
	}

	slog.Info("记分板连接已断开", "gameId", game.ID)
}
