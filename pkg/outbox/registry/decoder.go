package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// ErrNoDecoder is returned for an event type and envelope version nobody registered.
var ErrNoDecoder = errors.New("no payload decoder registered")

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, envelope version) to the payload struct it decodes into.
// Rows written by a newer producer than this publisher understands fail to decode instead of
// being shipped half-read.
type DecoderRegistry struct {
	mtx       sync.RWMutex
	factories map[registryKey]func() interface{}
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{factories: make(map[registryKey]func() interface{})}
}

// Register binds a payload factory; the factory must return a pointer.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, factory func() interface{}) {
	if factory == nil {
		return
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.factories[registryKey{eventType: eventType, version: version}] = factory
}

// Decode unmarshals payload into a fresh value from the matching factory.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	factory, ok := r.factories[registryKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s@v%d", ErrNoDecoder, eventType, version)
	}
	out := factory()
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, fmt.Errorf("decode %s@v%d payload: %w", eventType, version, err)
	}
	return out, nil
}
