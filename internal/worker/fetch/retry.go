package fetch

import (
	"fmt"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

// Outcome はHTTPステータスから判断した配信元の扱い。
type Outcome int

const (
	// OutcomeFetched は本文を取得できた（200）。
	OutcomeFetched Outcome = iota
	// OutcomeUnchanged は前回から変更がない（304）。
	OutcomeUnchanged
	// OutcomeStop は以後の取得をやめる（401/403/404/410）。
	OutcomeStop
	// OutcomeRetryLater はバックオフして再試行する（429/5xx、その他）。
	OutcomeRetryLater
)

const (
	// baseBackoff は1回目の失敗後の待ち時間。
	baseBackoff = 30 * time.Minute
	// maxBackoff は待ち時間の上限。
	maxBackoff = 12 * time.Hour
	// ParseFailureLimit はパース失敗がこの回数連続すると配信元を停止する。
	ParseFailureLimit = 10
)

// ClassifyStatus はHTTPステータスコードを配信元の扱いに分類する。
func ClassifyStatus(code int) Outcome {
	switch code {
	case 200:
		return OutcomeFetched
	case 304:
		return OutcomeUnchanged
	case 401, 403, 404, 410:
		return OutcomeStop
	default:
		return OutcomeRetryLater
	}
}

// backoffDelay はfailures回連続で失敗した後の待ち時間を返す。
// 30分から倍々に延ばし、12時間で頭打ちにする。
func backoffDelay(failures int) time.Duration {
	delay := baseBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// markFetched は取得成功を記録し、次回の取得をinterval後に設定する。
func markFetched(src *model.NewsSource, interval time.Duration, now time.Time) {
	src.ConsecutiveErrors = 0
	src.ErrorMessage = ""
	src.NextFetchAt = now.Add(interval)
	src.UpdatedAt = now
}

// markFailed は一時的な失敗を記録し、バックオフ後に再試行させる。
func markFailed(src *model.NewsSource, reason string, now time.Time) {
	src.ConsecutiveErrors++
	src.ErrorMessage = reason
	src.NextFetchAt = now.Add(backoffDelay(src.ConsecutiveErrors))
	src.UpdatedAt = now
}

// markStopped は配信元を停止状態にする。停止した配信元はListDueForFetchの対象外になる。
func markStopped(src *model.NewsSource, reason string, now time.Time) {
	src.FetchStatus = model.FetchStatusStopped
	src.ErrorMessage = reason
	src.UpdatedAt = now
}

// markParseFailed はパース失敗を記録する。ParseFailureLimit回連続した場合は停止する。
func markParseFailed(src *model.NewsSource, reason string, now time.Time) {
	markFailed(src, fmt.Sprintf("parse failed (%d in a row): %s", src.ConsecutiveErrors+1, reason), now)
	if src.ConsecutiveErrors >= ParseFailureLimit {
		markStopped(src, fmt.Sprintf("stopped after %d consecutive parse failures: %s", src.ConsecutiveErrors, reason), now)
	}
}
