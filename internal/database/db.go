package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/Noahbrat/scorepile/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 全局数据库连接池
var DB *pgxpool.Pool

// InitDB 初始化数据库连接
func InitDB(ctx context.Context, cfg *config.Config) error {
	dsn := cfg.DatabaseDSN()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("解析数据库连接配置失败: %w", err)
	}

	cpus := int32(runtime.NumCPU())
	poolConfig.MaxConns = cpus * 2 // 设置最大连接数为 cpu 数 * 2
	poolConfig.MinConns = cpus     // 设置最小连接数为 cpu 数

	DB, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("创建数据库连接池失败: %w", err)
	}

	// 测试连接
	if err := DB.Ping(ctx); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}

	slog.Info("数据库连接成功")
	return nil
}

// RunMigrations 执行数据库迁移
// 目录为空时回退到内置的 migrations 目录
func RunMigrations(ctx context.Context, migrationsDir string) error {
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	if err := ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx)
	if err != nil {
		return err
	}

	migrations, err := loadMigrations(migrationsDir)
	if err != nil {
		return err
	}

	ran := 0
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := applyMigration(ctx, m); err != nil {
			return err
		}
		ran++
	}

	if ran == 0 {
		slog.Info("数据库结构已是最新")
	} else {
		slog.Info("数据库迁移完成", "applied", ran)
	}
	return nil
}

// applyMigration 在单个事务中执行迁移并记录历史
func applyMigration(ctx context.Context, m migration) error {
	slog.Info("执行迁移", "version", m.version, "name", m.name)

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("执行迁移 %06d_%s 失败: %w", m.version, m.name, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
		m.version, m.name,
	); err != nil {
		return fmt.Errorf("记录迁移历史失败: %w", err)
	}

	return tx.Commit(ctx)
}

// migration 单个迁移文件
type migration struct {
	version int
	name    string
	sql     string
}

// ensureMigrationsTable 确保迁移历史表存在
func ensureMigrationsTable(ctx context.Context) error {
	_, err := DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// appliedMigrations 获取已应用的迁移版本
func appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := DB.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions[version] = true
	}

	return versions, rows.Err()
}

// loadMigrations 读取迁移文件并按版本号排序
// 文件名格式: 000001_init_schema.up.sql，版本号不允许重复
func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取迁移目录失败: %w", err)
	}

	var migrations []migration
	seen := make(map[int]string)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		versionStr, rest, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(versionStr)
		if err != nil {
			continue
		}

		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("迁移版本 %d 重复: %s 与 %s", version, prev, name)
		}
		seen[version] = name

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("读取迁移文件 %s 失败: %w", name, err)
		}

		migrations = append(migrations, migration{
			version: version,
			name:    strings.TrimSuffix(rest, ".up.sql"),
			sql:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations, nil
}

// Close 关闭数据库连接
func Close() {
	if DB != nil {
		DB.Close()
	}
}
