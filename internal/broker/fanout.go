package broker

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"makecommunity/internal/cache"
	"makecommunity/internal/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Invalidation kinds.
const (
	KindPath   = "path"
	KindLayout = "layout"
)

// Invalidation is the message published for every revalidation.
type Invalidation struct {
	Origin string `json:"origin"`
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
}

// FanOut revalidates the local cache and publishes the same call for the
// other replicas. It implements cache.Revalidator.
type FanOut struct {
	local  cache.Revalidator
	writer KafkaWriter
	reader KafkaReader
	origin string
	log    zerolog.Logger
}

// NewFanOut wires local to Kafka. reader may be nil for a publish-only
// instance.
func NewFanOut(local cache.Revalidator, writer KafkaWriter, reader KafkaReader) *FanOut {
	return &FanOut{
		local:  local,
		writer: writer,
		reader: reader,
		origin: uuid.NewString(),
		log:    logger.New("broker"),
	}
}

// Origin identifies this replica in published messages.
func (f *FanOut) Origin() string {
	return f.origin
}

func (f *FanOut) RevalidatePath(path string) {
	f.local.RevalidatePath(path)
	f.publish(Invalidation{Kind: KindPath, Path: path})
}

func (f *FanOut) RevalidateLayout() {
	f.local.RevalidateLayout()
	f.publish(Invalidation{Kind: KindLayout})
}

func (f *FanOut) publish(inv Invalidation) {
	inv.Origin = f.origin
	data, err := json.Marshal(inv)
	if err != nil {
		f.log.Error().Err(err).Msg("failed to encode invalidation")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.writer.WriteMessages(ctx, kafka.Message{Key: []byte(inv.Path), Value: data}); err != nil {
		// The local cache is already clean; other replicas catch up on TTL.
		f.log.Warn().Err(err).Str(logger.Path, inv.Path).Msg("failed to publish invalidation")
	}
}

// Apply revalidates the local cache for a message from another replica.
// Messages this replica published itself are ignored.
func (f *FanOut) Apply(data []byte) error {
	var inv Invalidation
	if err := json.Unmarshal(data, &inv); err != nil {
		return err
	}
	if inv.Origin == f.origin {
		return nil
	}
	switch inv.Kind {
	case KindPath:
		if inv.Path != "" {
			f.local.RevalidatePath(inv.Path)
		}
	case KindLayout:
		f.local.RevalidateLayout()
	}
	return nil
}

// Run consumes invalidations until ctx is cancelled, backing off on read
// errors.
func (f *FanOut) Run(ctx context.Context) {
	if f.reader == nil {
		return
	}
	f.log.Info().Msg("invalidation consumer started")

	var retry int
	for {
		select {
		case <-ctx.Done():
			f.log.Info().Msg("invalidation consumer stopped")
			return
		default:
		}

		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			f.log.Error().Err(err).Dur("backoff", backoff).Msg("kafka read error, backing off")
			if !waitWithContext(ctx, backoff) {
				continue
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			continue
		}
		if err := f.Apply(msg.Value); err != nil {
			f.log.Error().Err(err).Msg("invalid invalidation message")
		}
	}
}

// Close shuts down the Kafka writer and reader.
func (f *FanOut) Close() error {
	var firstErr error
	if err := f.writer.Close(); err != nil {
		firstErr = err
	}
	if f.reader != nil {
		if err := f.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ cache.Revalidator = (*FanOut)(nil)
