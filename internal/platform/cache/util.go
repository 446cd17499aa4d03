package cache

import (
	"time"
)

// TimeUntilNextRun は now から次の hour 時（loc 基準）までの期間を返します。
// 日次ジョブの次回実行まで有効なキャッシュのTTLに使います。
func TimeUntilNextRun(now time.Time, hour int, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 今日の実行時刻が既に過ぎている場合は翌日を使用
	if !now.Before(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}
