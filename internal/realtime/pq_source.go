package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
)

// PQSource subscribes to Postgres LISTEN/NOTIFY channels. Each subscription owns
// its own pq.Listener connection.
type PQSource struct {
	dsn string
	log *zap.Logger
}

func NewPQSource(dsn string, log *zap.Logger) *PQSource {
	return &PQSource{dsn: dsn, log: logger.OrNop(log)}
}

func (s *PQSource) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	log := s.log.With(zap.String("channel", channel))
	listener := pq.NewListener(s.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	sub := &pqSubscription{
		listener: listener,
		out:      make(chan Notification, 64),
		done:     make(chan struct{}),
	}
	sub.wg.Add(1)
	go sub.run(channel, log)
	return sub, nil
}

func (s *PQSource) Close() error { return nil }

type pqSubscription struct {
	listener *pq.Listener
	out      chan Notification
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func (p *pqSubscription) C() <-chan Notification { return p.out }

func (p *pqSubscription) run(channel string, log *zap.Logger) {
	defer p.wg.Done()
	defer close(p.out)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-p.done:
			return
		case n, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			select {
			case p.out <- Notification{Channel: n.Channel, Payload: []byte(n.Extra)}:
			case <-p.done:
				return
			}
		case <-ping.C:
			if err := p.listener.Ping(); err != nil {
				log.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}

func (p *pqSubscription) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		err = p.listener.Close()
	})
	return err
}
