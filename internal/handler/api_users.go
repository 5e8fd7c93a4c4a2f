// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Login    string `json:"login"` // 邮箱或用户名
	Password string `json:"password"`
}

// UpdateProfileRequest 更新个人信息请求
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register 处理 POST /api/users/register
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Username == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "邮箱和用户名不能为空", nil)
		return
	}
	if len(req.Password) < 8 {
		utils.ErrorResponse(w, http.StatusBadRequest, "密码至少需要8个字符", nil)
		return
	}

	exists, err := database.EmailOrUsernameExists(r.Context(), req.Email, req.Username)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if exists {
		utils.ErrorResponse(w, http.StatusConflict, "邮箱或用户名已被注册", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "密码处理失败", err)
		return
	}

	user := &database.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := database.CreateUser(r.Context(), user); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "创建用户失败", err)
		return
	}

	// 注册即登录
	sessionID := middleware.CreateSession(user.ID)
	middleware.SetSessionCookie(w, sessionID)

	utils.JSONResponse(w, http.StatusCreated, user)
}

// Login 返回登录处理器，登录失败计入限流器
func Login(limiter *middleware.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		ip := utils.GetClientIP(r)

		user, err := database.GetUserByLogin(r.Context(), strings.TrimSpace(req.Login))
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}

		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			limiter.RecordAttempt(ip)
			utils.ErrorResponse(w, http.StatusUnauthorized, "用户名或密码错误", nil)
			return
		}

		limiter.ResetAttempts(ip)

		sessionID := middleware.CreateSession(user.ID)
		middleware.SetSessionCookie(w, sessionID)

		utils.SuccessResponse(w, user)
	}
}

// Logout 处理 POST /api/users/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		middleware.DeleteSession(cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	utils.SuccessResponse(w, map[string]string{"message": "已退出登录"})
}

// GetProfile 处理 GET /api/users/profile
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetSessionUserID(r)

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if user == nil {
		utils.ErrorResponse(w, http.StatusNotFound, "用户不存在", nil)
		return
	}

	utils.SuccessResponse(w, user)
}

// UpdateProfile 处理 PUT /api/users/profile
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetSessionUserID(r)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	if err := database.UpdateUserProfile(r.Context(), userID, req.FirstName, req.LastName); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "更新个人信息失败", err)
		return
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}

	utils.SuccessResponse(w, user)
}

// ChangePassword 处理 PUT /api/users/password
// 修改成功后吊销该用户全部会话，需要重新登录
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetSessionUserID(r)

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	if len(req.NewPassword) < 8 {
		utils.ErrorResponse(w, http.StatusBadRequest, "密码至少需要8个字符", nil)
		return
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if user == nil {
		utils.ErrorResponse(w, http.StatusNotFound, "用户不存在", nil)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		utils.ErrorResponse(w, http.StatusUnauthorized, "当前密码错误", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "密码处理失败", err)
		return
	}

	if err := database.UpdateUserPassword(r.Context(), userID, string(hashed)); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "修改密码失败", err)
		return
	}

	middleware.DeleteUserSessions(userID)
	middleware.ClearSessionCookie(w)

	utils.SuccessResponse(w, map[string]string{"message": "密码已修改，请重新登录"})
}
