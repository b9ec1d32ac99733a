package postgres

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/internal/repository"
)

type changeFeed struct {
	listener *pq.Listener
	changes  chan struct{}
	done     chan struct{}
}

// NewChangeFeed subscribes to measurement change notifications on dsn.
// Bursts of notifications are coalesced into a single pending signal.
func NewChangeFeed(dsn string) (repository.ChangeFeed, error) {
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn().Err(err).Msg("Change feed connection attempt failed")
		case pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("Change feed disconnected")
		case pq.ListenerEventReconnected:
			log.Info().Msg("Change feed reconnected")
		}
	})

	if err := listener.Listen(ChangeChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}

	f := &changeFeed{
		listener: listener,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go f.run()
	return f, nil
}

func (f *changeFeed) run() {
	defer close(f.changes)
	for {
		select {
		case <-f.done:
			return
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			// a nil notification follows a reconnect; changes may have been missed
			if n != nil {
				log.Debug().Str("op", n.Extra).Msg("Measurements changed")
			}
			f.signal()
		case <-time.After(90 * time.Second):
			if err := f.listener.Ping(); err != nil {
				log.Warn().Err(err).Msg("Change feed ping failed")
			}
		}
	}
}

func (f *changeFeed) signal() {
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

// Changes returns the notification channel. It is closed after Close.
func (f *changeFeed) Changes() <-chan struct{} {
	return f.changes
}

// Close stops listening
func (f *changeFeed) Close() error {
	close(f.done)
	return f.listener.Close()
}
