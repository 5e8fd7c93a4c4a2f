// Package router 提供 HTTP 路由配置
package router

import (
	"log/slog"
	"net/http"

	"github.com/Noahbrat/scorepile/internal/engine"
	"github.com/Noahbrat/scorepile/internal/handler"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/internal/scoring"
)

const healthCheckResponse = `{"status":"ok"}`

// Setup 配置所有路由
// CORS 包在整个 mux 外层：方法限定的路由模式会让 mux 直接对预检
// OPTIONS 返回 405，必须在进入 mux 之前拦截
func Setup(rateLimiter *middleware.RateLimiter, registry *engine.Registry, coordinator *scoring.Coordinator, live *handler.LiveHub) http.Handler {
	mux := http.NewServeMux()

	// 公开路由：日志
	public := func(h http.Handler) http.Handler {
		return middleware.Logger(h)
	}
	// 认证路由：日志 + 会话认证
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Logger(middleware.SessionAuth(h))
	}

	// 健康检查
	mux.HandleFunc("GET /isalive", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(healthCheckResponse)); err != nil {
			slog.Error("健康检查响应写入失败", "error", err)
		}
	})

	// 用户接口 - 公开
	mux.Handle("POST /api/users/register", public(http.HandlerFunc(handler.Register)))
	mux.Handle("POST /api/users/login", public(middleware.RateLimit(rateLimiter)(handler.Login(rateLimiter))))
	mux.Handle("POST /api/users/logout", public(http.HandlerFunc(handler.Logout)))

	// 用户接口 - 需登录
	mux.Handle("GET /api/users/profile", authed(handler.GetProfile))
	mux.Handle("PUT /api/users/profile", authed(handler.UpdateProfile))
	mux.Handle("PUT /api/users/password", authed(handler.ChangePassword))

	// 玩家花名册
	mux.Handle("GET /api/players", authed(handler.ListPlayers))
	mux.Handle("POST /api/players", authed(handler.CreatePlayer))
	mux.Handle("GET /api/players/{playerId}", authed(handler.GetPlayer))
	mux.Handle("PUT /api/players/{playerId}", authed(handler.UpdatePlayer))
	mux.Handle("DELETE /api/players/{playerId}", authed(handler.DeletePlayer))

	// 游戏类型与引擎
	mux.Handle("GET /api/game-types", authed(handler.ListGameTypes))
	mux.Handle("POST /api/game-types", authed(handler.CreateGameType(registry)))
	mux.Handle("GET /api/game-types/engines", authed(handler.ListEngines(registry)))
	mux.Handle("GET /api/game-types/{gameTypeId}", authed(handler.GetGameType))
	mux.Handle("PUT /api/game-types/{gameTypeId}", authed(handler.UpdateGameType(registry)))
	mux.Handle("DELETE /api/game-types/{gameTypeId}", authed(handler.DeleteGameType))
	mux.Handle("GET /api/game-types/{gameTypeId}/bids", authed(handler.GameTypeBids))

	// 游戏
	mux.Handle("GET /api/games", authed(handler.ListGames))
	mux.Handle("POST /api/games", authed(handler.CreateGame))
	mux.Handle("GET /api/games/{gameId}", authed(handler.GetGame))
	mux.Handle("PUT /api/games/{gameId}", authed(handler.UpdateGame))
	mux.Handle("DELETE /api/games/{gameId}", authed(handler.DeleteGame))
	mux.Handle("POST /api/games/{gameId}/assign-teams", authed(handler.AssignTeams))
	mux.Handle("DELETE /api/games/{gameId}/players/{gamePlayerId}", authed(handler.RemovePlayer(live)))
	mux.Handle("POST /api/games/{gameId}/recalculate-totals", authed(handler.RecalculateTotals(live)))
	mux.Handle("POST /api/games/{gameId}/complete", authed(handler.CompleteGame))
	mux.Handle("GET /api/games/{gameId}/export", authed(handler.ExportGame))

	// 回合流转
	mux.Handle("POST /api/games/{gameId}/calculate-round", authed(handler.CalculateRound(coordinator)))
	mux.Handle("POST /api/games/{gameId}/save-round", authed(handler.SaveRound(coordinator, live)))
	mux.Handle("GET /api/games/{gameId}/rounds", authed(handler.ListRounds))
	mux.Handle("GET /api/games/{gameId}/rounds/{roundId}", authed(handler.GetRound))
	mux.Handle("DELETE /api/games/{gameId}/rounds/{roundId}", authed(handler.DeleteRound(live)))
	mux.Handle("POST /api/games/{gameId}/rounds/{roundId}/complete", authed(handler.CompleteRound(coordinator, live)))
	mux.Handle("POST /api/games/{gameId}/rounds/{roundId}/cancel", authed(handler.CancelRound(coordinator, live)))

	// 分数
	mux.Handle("GET /api/games/{gameId}/scores", authed(handler.ListScores))
	mux.Handle("POST /api/games/{gameId}/scores", authed(handler.CreateScore(live)))
	mux.Handle("POST /api/games/{gameId}/scores/bulk", authed(handler.CreateScoresBulk(live)))
	mux.Handle("PUT /api/games/{gameId}/scores/{scoreId}", authed(handler.UpdateScore(live)))
	mux.Handle("DELETE /api/games/{gameId}/scores/{scoreId}", authed(handler.DeleteScore(live)))

	// WebSocket 实时记分板
	mux.Handle("GET /api/games/{gameId}/live", authed(live.Serve))

	// 统计信息
	mux.Handle("GET /api/stats", authed(handler.GetStats))

	return middleware.CORS(mux)
}
