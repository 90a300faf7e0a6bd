package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/tracknote/internal/model"
)

// LiveQuery re-delivers its full result list on creation and after every change.
// C holds at most one pending list; an unread list is replaced by a newer one.
// C is closed once the query stops.
type LiveQuery struct {
	C <-chan []model.Annotation

	name   string
	out    chan []model.Annotation
	dirty  chan struct{}
	fetch  func(context.Context) []model.Annotation
	remove func(*LiveQuery)
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func newLiveQuery(ctx context.Context, name string, fetch func(context.Context) []model.Annotation, remove func(*LiveQuery), logger *slog.Logger) *LiveQuery {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []model.Annotation, 1)
	q := &LiveQuery{
		C:      out,
		name:   name,
		out:    out,
		dirty:  make(chan struct{}, 1),
		fetch:  fetch,
		remove: remove,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	q.dirty <- struct{}{}
	return q
}

// Close stops the query. It is safe to call more than once.
func (q *LiveQuery) Close() {
	q.once.Do(func() {
		q.cancel()
		if q.remove != nil {
			q.remove(q)
		}
	})
}

// Done is closed after C has been closed.
func (q *LiveQuery) Done() <-chan struct{} {
	return q.done
}

func (q *LiveQuery) invalidate() {
	select {
	case q.dirty <- struct{}{}:
	default:
	}
}

func (q *LiveQuery) run() {
	defer close(q.done)
	defer close(q.out)
	defer q.Close()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-q.dirty:
		}
		if q.ctx.Err() != nil {
			return
		}

		rows := q.fetch(q.ctx)
		if q.ctx.Err() != nil {
			return
		}
		q.logger.Debug("live query refreshed", "query", q.name, "rows", len(rows))
		q.publish(rows)
	}
}

// publish replaces any unread list. run is the only sender.
func (q *LiveQuery) publish(rows []model.Annotation) {
	select {
	case q.out <- rows:
	default:
		select {
		case <-q.out:
		default:
		}
		q.out <- rows
	}
}
