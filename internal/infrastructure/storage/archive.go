package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// ErrQueueFull is returned by Enqueue when the archive cannot keep up
var ErrQueueFull = errors.New("activity archive queue full")

// DefaultArchiveBuffer is the queue length used when none is given
const DefaultArchiveBuffer = 256

const writeTimeout = 5 * time.Second

// ActivityWriter persists archived activity rows
type ActivityWriter interface {
	InsertActivity(ctx context.Context, a types.StoredActivity) (types.StoredActivity, error)
}

// Archiver copies desktop activity records into the activity_logs table
// from a background goroutine
type Archiver struct {
	writer  ActivityWriter
	queue   chan types.StoredActivity
	breaker *resilience.Breaker
	log     *logging.Logger

	stored  atomic.Uint64
	dropped atomic.Uint64

	// OnStored is called after each row is written
	OnStored func(types.StoredActivity)
}

// NewArchiver creates an archiver with a queue of buffer rows
func NewArchiver(writer ActivityWriter, buffer int, log *logging.Logger) *Archiver {
	if buffer <= 0 {
		buffer = DefaultArchiveBuffer
	}
	if log == nil {
		log = logging.NewNop()
	}
	l := log.Named("archive")
	return &Archiver{
		writer: writer,
		queue:  make(chan types.StoredActivity, buffer),
		breaker: resilience.New("activity_archive", resilience.Settings{
			Threshold: 5,
			Cooldown:  30 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				l.Warn("Archive breaker changed state",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		log: l,
	}
}

// Enqueue converts a desktop record for userID and queues it without
// blocking
func (a *Archiver) Enqueue(userID string, rec types.ActivityRecord) error {
	details, err := sonic.MarshalString(rec.Details)
	if err != nil {
		return err
	}
	row := types.StoredActivity{
		UserID:    userID,
		Action:    rec.Action,
		Details:   details,
		Timestamp: rec.Timestamp,
	}

	select {
	case a.queue <- row:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run writes queued rows until ctx is done, then flushes what is left
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case row := <-a.queue:
			a.write(ctx, row)
		case <-ctx.Done():
			a.flush(ctx)
			return
		}
	}
}

func (a *Archiver) flush(ctx context.Context) {
	for {
		select {
		case row := <-a.queue:
			a.write(ctx, row)
		default:
			return
		}
	}
}

// write outlives the Run context so rows queued before shutdown still land
func (a *Archiver) write(ctx context.Context, row types.StoredActivity) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	var stored types.StoredActivity
	err := a.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		stored, err = a.writer.InsertActivity(ctx, row)
		return err
	})
	if err != nil {
		a.dropped.Add(1)
		a.log.Warn("Dropped archived activity", zap.String("action", row.Action), zap.Error(err))
		return
	}

	a.stored.Add(1)
	if a.OnStored != nil {
		a.OnStored(stored)
	}
}

// ArchiveStats reports archiver throughput
type ArchiveStats struct {
	Stored  uint64           `json:"stored"`
	Dropped uint64           `json:"dropped"`
	Queued  int              `json:"queued"`
	Breaker resilience.Stats `json:"breaker"`
}

// Stats returns archiver counters
func (a *Archiver) Stats() ArchiveStats {
	return ArchiveStats{
		Stored:  a.stored.Load(),
		Dropped: a.dropped.Load(),
		Queued:  len(a.queue),
		Breaker: a.breaker.Stats(),
	}
}
