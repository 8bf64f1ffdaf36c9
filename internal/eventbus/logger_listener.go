package eventbus

import (
	"context"

	"github.com/annel0/mmo-navgrid/internal/logging"
)

// StartLoggingListener подписывается на события и пишет их в лог шины.
// Функция неблокирующая; пустой фильтр означает все события.
func StartLoggingListener(bus EventBus, f Filter) (Subscription, error) {
	logger := logging.GetEventBusLogger()

	sub, err := bus.Subscribe(context.Background(), f, func(ctx context.Context, ev *Envelope) {
		logger.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на события активирована")
	return sub, nil
}
