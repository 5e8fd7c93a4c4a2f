package handler

import (
	"net/http"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// GetStats 处理 GET /api/stats
// 返回当前用户的计分统计信息
func GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := database.GetUserStats(r.Context(), middleware.GetSessionUserID(r))
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取统计信息失败", err)
		return
	}

	utils.SuccessResponse(w, stats)
}
