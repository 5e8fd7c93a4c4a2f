package database

import (
	"context"
	"log/slog"
	"time"
)

// CleanupStaleRounds 清理长期滞留在进行中状态的回合
// 被遗弃的叫牌回合会一直占用每局一个进行中回合的名额，定期清掉
func CleanupStaleRounds(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	tag, err := DB.Exec(ctx, `
		DELETE FROM rounds
		WHERE status = $1 AND updated_at < $2
	`, RoundStatusPlaying, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		slog.Info("清理过期回合完成", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
