// Package live はコレクション変更の通知とライブ購読を提供する。
// 書き込みは通知のみを発火し、購読者は通知ごとにコレクションを再クエリして
// スナップショット全体を配信する。
package live

import "sync"

// Notifier はコレクション変更を通知するインターフェース。
type Notifier interface {
	Publish(collection string)
}

// Hub はコレクション名ごとの購読者へ変更シグナルを配る。
// シグナルは容量1のチャネルで合流されるため、遅い購読者でも
// 最新状態の再クエリが1回分だけ保留される。
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub は空のHubを生成する。
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe はcollectionの変更シグナルを受け取るチャネルと購読解除関数を返す。
func (h *Hub) Subscribe(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[chan struct{}]struct{})
	}
	h.subs[collection][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[collection], ch)
			if len(h.subs[collection]) == 0 {
				delete(h.subs, collection)
			}
			h.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

// Publish はcollectionの全購読者にシグナルを送る。ブロックしない。
func (h *Hub) Publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[collection] {
		signal(ch)
	}
}

// PublishAll は全コレクションの購読者にシグナルを送る。
// 通知経路が切れて変更を取りこぼした可能性がある場合に使う。
func (h *Hub) PublishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for ch := range set {
			signal(ch)
		}
	}
}

// Subscribers はcollectionの購読者数を返す。
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// compile-time interface check
var _ Notifier = (*Hub)(nil)
