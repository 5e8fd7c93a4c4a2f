package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	sessionID := CreateSession("user-1")

	session, ok := GetSession(sessionID)
	if !ok {
		t.Fatal("应能获取刚创建的会话")
	}
	if session.UserID != "user-1" {
		t.Errorf("UserID = %s, 期望 user-1", session.UserID)
	}

	DeleteSession(sessionID)
	if _, ok := GetSession(sessionID); ok {
		t.Error("删除后会话不应存在")
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	sessionID := CreateSession("user-2")

	// 手动过期
	store.mu.Lock()
	store.sessions[sessionID].ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	if _, ok := GetSession(sessionID); ok {
		t.Error("过期会话不应可用")
	}

	CleanupExpiredSessions()
	store.mu.RLock()
	_, exists := store.sessions[sessionID]
	store.mu.RUnlock()
	if exists {
		t.Error("清理后过期会话应被移除")
	}
}

func TestDeleteUserSessions(t *testing.T) {
	first := CreateSession("user-3")
	second := CreateSession("user-3")
	other := CreateSession("user-4")

	DeleteUserSessions("user-3")

	if _, ok := GetSession(first); ok {
		t.Error("用户的会话应全部删除")
	}
	if _, ok := GetSession(second); ok {
		t.Error("用户的会话应全部删除")
	}
	if _, ok := GetSession(other); !ok {
		t.Error("其他用户的会话不应受影响")
	}
}

func TestSessionAuth(t *testing.T) {
	sessionID := CreateSession("user-5")

	var gotUserID string
	h := SessionAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetSessionUserID(r)
	}))

	// 无 Cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("无Cookie状态码 = %d, 期望 401", rec.Code)
	}

	// 无效 Cookie
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/games", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("无效Cookie状态码 = %d, 期望 401", rec.Code)
	}

	// 有效 Cookie
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/games", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("有效Cookie状态码 = %d, 期望 200", rec.Code)
	}
	if gotUserID != "user-5" {
		t.Errorf("上下文用户ID = %s, 期望 user-5", gotUserID)
	}
}
