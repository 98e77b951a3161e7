package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"digital-menu/db"
)

const ThrottleCooldownCapSeconds = 30

// LoginThrottleWaitSeconds returns how many seconds the subject (an admin email or a telegram user) must wait before trying again (0 if no cooldown).
func LoginThrottleWaitSeconds(ctx context.Context, subject string) (int, error) {
	var cooldownUntil *time.Time
	err := db.Pool.QueryRow(ctx, `
		SELECT cooldown_until FROM login_throttle WHERE subject = $1`,
		subject,
	).Scan(&cooldownUntil)
	if err != nil {
		return 0, nil // no row = no throttle
	}
	if cooldownUntil == nil {
		return 0, nil
	}
	return WaitSecondsUntil(*cooldownUntil, time.Now()), nil
}

// WaitSecondsUntil rounds the remaining cooldown up to whole seconds.
func WaitSecondsUntil(until, now time.Time) int {
	if !now.Before(until) {
		return 0
	}
	return int(until.Sub(now).Seconds()) + 1
}

// RecordLoginFailed increments fail_count and sets cooldown_until = now() + min(30, 2^fail_count) seconds.
func RecordLoginFailed(ctx context.Context, subject string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO login_throttle (subject, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 1, now(), now() + (LEAST(30, POWER(2, 1)::int) || ' seconds')::interval, now())
		ON CONFLICT (subject) DO UPDATE SET
			fail_count = login_throttle.fail_count + 1,
			last_failed_at = now(),
			cooldown_until = now() + (LEAST(30, POWER(2, login_throttle.fail_count + 1)::int) || ' seconds')::interval,
			updated_at = now()`,
		subject,
	)
	return err
}

// RecordLoginSuccess resets fail_count and cooldown_until for the subject.
func RecordLoginSuccess(ctx context.Context, subject string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO login_throttle (subject, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 0, NULL, NULL, now())
		ON CONFLICT (subject) DO UPDATE SET
			fail_count = 0,
			last_failed_at = NULL,
			cooldown_until = NULL,
			updated_at = now()`,
		subject,
	)
	return err
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailSubject keys web sign-in attempts.
func EmailSubject(email string) string {
	return "email:" + normalizeEmail(email)
}

// TelegramSubject keys admin bot password attempts.
func TelegramSubject(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}
