package live

import (
	"context"
)

// Subscriber はコレクション変更シグナルの購読インターフェース。
type Subscriber interface {
	Subscribe(collection string) (<-chan struct{}, func())
}

// Stream はcollectionのライブ購読を実行する。
// 最初にqueryの結果をemitし、以降は変更シグナルごとに再クエリしてemitする。
// ctxがキャンセルされると購読を解除してnilを返す。
// queryまたはemitがエラーを返した場合はそのエラーで終了する。
func Stream[T any](
	ctx context.Context,
	sub Subscriber,
	collection string,
	query func(ctx context.Context) (T, error),
	emit func(snapshot T) error,
) error {
	changes, unsubscribe := sub.Subscribe(collection)
	defer unsubscribe()

	push := func() error {
		snapshot, err := query(ctx)
		if err != nil {
			return err
		}
		return emit(snapshot)
	}

	if err := push(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := push(); err != nil {
				return err
			}
		}
	}
}

// compile-time interface check
var _ Subscriber = (*Hub)(nil)
