package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

// snapshotEvent はSSEで送るイベント名。
const snapshotEvent = "snapshot"

// streamer はライブ一覧をServer-Sent Eventsで配信する。
type streamer struct {
	sub      live.Subscriber
	recorder metrics.StreamRecorder
}

func newStreamer(sub live.Subscriber, recorder metrics.StreamRecorder) streamer {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return streamer{sub: sub, recorder: recorder}
}

// serveStream はcollectionの変更ごとにqueryの結果をsnapshotイベントとして送る。
// クライアントが切断するとリクエストコンテキストが終了し、購読も解除される。
func serveStream[T any](s streamer, w http.ResponseWriter, r *http.Request, collection string, query func(ctx context.Context) (T, error)) {
	rc := http.NewResponseController(w)
	// 長時間接続のためサーバー全体のWriteTimeoutを無効化する
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("failed to clear write deadline", slog.String("error", err.Error()))
	}

	s.recorder.StreamOpened(collection)
	defer s.recorder.StreamClosed(collection)

	started := false
	emit := func(snap T) error {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		if !started {
			h := w.Header()
			h.Set("Content-Type", "text/event-stream")
			h.Set("Cache-Control", "no-cache")
			h.Set("Connection", "keep-alive")
			h.Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", snapshotEvent, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	err := live.Stream(r.Context(), s.sub, collection, query, emit)
	if err == nil || r.Context().Err() != nil {
		return
	}

	slog.Error("live stream failed",
		slog.String("collection", collection),
		slog.String("error", err.Error()),
	)
	if !started {
		handleServiceError(w, err)
		return
	}
	// 既にストリーム開始済みの場合はエラーイベントを送って閉じる
	apiErr := model.NewStoreUnavailableError()
	data, _ := json.Marshal(middleware.ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	rc.Flush()
}
