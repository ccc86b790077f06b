package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PGSource はPostgreSQLのLISTEN/NOTIFYでコレクション変更を受け取り、Hubへ転送する。
// 通知はテーブルトリガーから発火されるため、別プロセスからの書き込みも反映される。
type PGSource struct {
	listener *pq.Listener
	channel  string
	hub      *Hub
	logger   *slog.Logger
}

// NewPGSource はchannelをLISTENするPGSourceを生成する。
func NewPGSource(databaseURL, channel string, hub *Hub, logger *slog.Logger) (*PGSource, error) {
	src := &PGSource{channel: channel, hub: hub, logger: logger}

	src.listener = pq.NewListener(databaseURL, 10*time.Second, time.Minute, src.onEvent)
	if err := src.listener.Listen(channel); err != nil {
		src.listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}
	return src, nil
}

func (s *PGSource) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		s.logger.Info("変更通知の購読を開始しました", slog.String("channel", s.channel))
	case pq.ListenerEventDisconnected:
		s.logger.Warn("変更通知の接続が切断されました", slog.Any("error", err))
	case pq.ListenerEventReconnected:
		s.logger.Info("変更通知に再接続しました", slog.String("channel", s.channel))
	case pq.ListenerEventConnectionAttemptFailed:
		s.logger.Warn("変更通知への再接続に失敗しました", slog.Any("error", err))
	}
}

// Run はctxがキャンセルされるまで通知をHubへ転送する。
// 再接続時はnil通知が届くため、取りこぼしを補うため全購読者に再クエリさせる。
func (s *PGSource) Run(ctx context.Context) {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.listener.Close()
			return
		case n := <-s.listener.Notify:
			if n == nil {
				s.hub.PublishAll()
				continue
			}
			s.hub.Publish(n.Extra)
		case <-ping.C:
			if err := s.listener.Ping(); err != nil {
				s.logger.Warn("変更通知接続のpingに失敗しました", slog.String("error", err.Error()))
			}
		}
	}
}
