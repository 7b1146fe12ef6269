package persistence

import "context"

// KeyValueStore is the durable client-side storage the state is mirrored into.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Recorder receives persistence outcomes (implemented by metrics.Metrics).
type Recorder interface {
	ObserveSave(key, outcome string)
	ObserveLoadReset(key string)
}
