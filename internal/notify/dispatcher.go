package notify

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskdesk_notifications_total",
		Help: "Notification emails by kind and outcome",
	},
	[]string{"kind", "result"},
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 100
)

type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// Dispatcher delivers messages in the background. Submission never blocks
// the caller and nothing is retried: a full queue, a closed dispatcher or a
// failed send loses the message, which is only logged and counted.
type Dispatcher struct {
	mailer Mailer
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, logger zerolog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	d := &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, cfg.QueueSize),
	}
	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) Notify(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(msg, "dispatcher closed")
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.drop(msg, "queue full")
	}
}

func (d *Dispatcher) drop(msg Message, reason string) {
	notificationsTotal.WithLabelValues(string(msg.Kind), "dropped").Inc()
	d.logger.Warn().
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Str("reason", reason).
		Msg("notification dropped")
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			notificationsTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
			d.logger.Error().
				Interface("panic", r).
				Str("kind", string(msg.Kind)).
				Msg("notification mailer panicked")
		}
	}()

	if err := d.mailer.Send(msg); err != nil {
		notificationsTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
		d.logger.Error().
			Err(err).
			Str("kind", string(msg.Kind)).
			Str("to", msg.To).
			Msg("failed to send notification")
		return
	}
	notificationsTotal.WithLabelValues(string(msg.Kind), "sent").Inc()
	d.logger.Debug().
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Msg("notification sent")
}

// Close stops intake and waits for queued messages until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
