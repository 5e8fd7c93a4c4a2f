package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Noahbrat/scorepile/pkg/utils"

	"github.com/google/uuid"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// SessionCookieName Session Cookie 名称
	SessionCookieName = "session_id"
	// SessionUserIDKey 用户ID上下文键
	SessionUserIDKey ContextKey = "sessionUserID"
)

// SessionDuration Session 有效期，启动时可按配置覆盖
var SessionDuration = 72 * time.Hour

// Session 会话结构
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore 会话存储
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var store = &SessionStore{
	sessions: make(map[string]*Session),
}

// CreateSession 创建新会话
func CreateSession(userID string) string {
	sessionID := uuid.New().String()
	now := time.Now()

	store.mu.Lock()
	defer store.mu.Unlock()

	store.sessions[sessionID] = &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}

	return sessionID
}

// GetSession 获取会话
func GetSession(sessionID string) (*Session, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	session, exists := store.sessions[sessionID]
	if !exists {
		return nil, false
	}

	// 检查是否过期
	if time.Now().After(session.ExpiresAt) {
		return nil, false
	}

	return session, true
}

// DeleteSession 删除会话
func DeleteSession(sessionID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.sessions, sessionID)
}

// DeleteUserSessions 删除某用户的全部会话（修改密码时调用）
func DeleteUserSessions(userID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, session := range store.sessions {
		if session.UserID == userID {
			delete(store.sessions, id)
		}
	}
}

// CleanupExpiredSessions 清理过期会话
func CleanupExpiredSessions() {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	for id, session := range store.sessions {
		if now.After(session.ExpiresAt) {
			delete(store.sessions, id)
		}
	}
}

// SetSessionCookie 设置 Session Cookie
func SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(SessionDuration.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie 清除 Session Cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// SessionAuth Session 认证中间件
func SessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 获取 Session Cookie
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			utils.ErrorResponse(w, http.StatusUnauthorized, "未登录", nil)
			return
		}

		// 获取 Session
		session, exists := GetSession(cookie.Value)
		if !exists {
			ClearSessionCookie(w)
			utils.ErrorResponse(w, http.StatusUnauthorized, "会话已过期", nil)
			return
		}

		// 将用户ID存入上下文
		ctx := context.WithValue(r.Context(), SessionUserIDKey, session.UserID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionUserID 从上下文获取用户ID
func GetSessionUserID(r *http.Request) string {
	if v := r.Context().Value(SessionUserIDKey); v != nil {
		return v.(string)
	}
	return ""
}
