package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetUserByID 根据ID获取用户
func GetUserByID(ctx context.Context, userID string) (*User, error) {
	var u User
	var firstName, lastName *string

	err := DB.QueryRow(ctx, `
		SELECT id, email, username, password, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&u.ID, &u.Email, &u.Username, &u.Password, &firstName, &lastName, &u.CreatedAt, &u.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	return &u, nil
}

// GetUserByLogin 根据邮箱或用户名获取用户
func GetUserByLogin(ctx context.Context, login string) (*User, error) {
	var u User
	var firstName, lastName *string

	err := DB.QueryRow(ctx, `
		SELECT id, email, username, password, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1 OR username = $1
	`, login).Scan(
		&u.ID, &u.Email, &u.Username, &u.Password, &firstName, &lastName, &u.CreatedAt, &u.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	return &u, nil
}

// CreateUser 创建新用户
func CreateUser(ctx context.Context, u *User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := DB.Exec(ctx, `
		INSERT INTO users (id, email, username, password, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Email, u.Username, u.Password, u.FirstName, u.LastName, now, now)
	return err
}

// UpdateUserProfile 更新用户个人信息
func UpdateUserProfile(ctx context.Context, userID, firstName, lastName string) error {
	_, err := DB.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, updated_at = $3
		WHERE id = $4
	`, firstName, lastName, time.Now(), userID)
	return err
}

// UpdateUserPassword 更新用户密码（已哈希）
func UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	_, err := DB.Exec(ctx, `
		UPDATE users
		SET password = $1, updated_at = $2
		WHERE id = $3
	`, hashedPassword, time.Now(), userID)
	return err
}

// EmailOrUsernameExists 检查邮箱或用户名是否已被占用
func EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE email = $1 OR username = $2
	`, email, username).Scan(&count)
	return count > 0, err
}
