package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterLocksAfterMaxAttempts(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	ip := "203.0.113.7"

	if rl.IsLocked(ip) {
		t.Fatal("新IP不应被锁定")
	}

	if rl.RecordAttempt(ip) {
		t.Error("第1次尝试不应触发锁定")
	}
	if rl.RecordAttempt(ip) {
		t.Error("第2次尝试不应触发锁定")
	}
	if !rl.RecordAttempt(ip) {
		t.Error("第3次尝试应触发锁定")
	}

	if !rl.IsLocked(ip) {
		t.Error("达到上限后IP应被锁定")
	}
	if rl.GetLockRemainingTime(ip) <= 0 {
		t.Error("锁定中应有剩余时间")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	ip := "203.0.113.8"
	rl.RecordAttempt(ip)
	rl.ResetAttempts(ip)

	if rl.RecordAttempt(ip) {
		t.Error("重置后计数应从头开始")
	}
}

func TestRateLimiterIsolatesIPs(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	rl.RecordAttempt("203.0.113.9")
	rl.RecordAttempt("203.0.113.9")

	if rl.IsLocked("203.0.113.10") {
		t.Error("其他IP不应受影响")
	}
}
