package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// GridEventVersion версия схемы полезной нагрузки событий сетки
const GridEventVersion = 1

const publishTimeout = 2 * time.Second

// GridObserver возвращает world.Observer, публикующий события сетки в bus.
// События сетки целиком (initialized, cleared) идут с высоким приоритетом
// и не отбрасываются при переполнении; события секторов - обычные.
func GridObserver(bus EventBus, source string) world.Observer {
	logger := logging.GetEventBusLogger()

	return func(ev world.GridEvent) {
		env, err := NewGridEnvelope(ev, source)
		if err != nil {
			logger.Error("Не удалось упаковать событие %s: %v", ev.Type, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := bus.Publish(ctx, env); err != nil {
			logger.Warn("⚠️ Событие %s не опубликовано: %v", env.EventType, err)
		}
	}
}

// NewGridEnvelope упаковывает событие сетки в Envelope
func NewGridEnvelope(ev world.GridEvent, source string) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	priority := 3
	if ev.Type == world.EventGridInitialized || ev.Type == world.EventGridCleared {
		priority = 7
	}

	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: ev.Type.String(),
		Version:   GridEventVersion,
		Priority:  priority,
		Payload:   payload,
		Metadata: map[string]string{
			"revision": fmt.Sprintf("%d", ev.Revision),
		},
	}, nil
}

// DecodeGridEvent восстанавливает событие сетки из Envelope
func DecodeGridEvent(env *Envelope) (world.GridEvent, error) {
	t, ok := world.ParseEventType(env.EventType)
	if !ok {
		return world.GridEvent{}, fmt.Errorf("unknown grid event type %q", env.EventType)
	}

	var ev world.GridEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return world.GridEvent{}, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	ev.Type = t
	return ev, nil
}
