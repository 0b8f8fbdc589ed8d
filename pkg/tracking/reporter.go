package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// deliveryTimeout bounds a single delivery attempt to the backend.
const deliveryTimeout = 10 * time.Second

// Sender delivers a location payload to the storage backend.
type Sender interface {
	SendLocation(ctx context.Context, payload Payload) error
}

// job is the owned handle for one chat's repeating report loop.
type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Reporter runs at most one repeating location report per chat id. Each
// firing re-reads the chat's last known position and delivers it best-effort;
// failures are logged and the next firing proceeds on schedule.
type Reporter struct {
	store    LocationStore
	sender   Sender
	interval time.Duration
	delay    time.Duration
	logger   zerolog.Logger

	mu   sync.Mutex
	jobs map[int64]*job
}

// NewReporter creates a reporter that fires every interval, starting delay
// after a job is scheduled.
func NewReporter(store LocationStore, sender Sender, interval, delay time.Duration, logger zerolog.Logger) *Reporter {
	return &Reporter{
		store:    store,
		sender:   sender,
		interval: interval,
		delay:    delay,
		logger:   logger.With().Str("component", "location-reporter").Logger(),
		jobs:     make(map[int64]*job),
	}
}

// Schedule starts the repeating report for the chat, snapshotting name and id
// number. Any job already running for the chat is cancelled and replaced, so
// after Schedule returns there is exactly one live job for the chat id.
func (r *Reporter) Schedule(chatID int64, name, idNumber string) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.jobs[chatID]
	r.jobs[chatID] = j
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
		r.logger.Info().Int64("chat_id", chatID).Msg("Replaced existing location report job")
	}

	go r.run(ctx, j, chatID, name, idNumber)
}

// Cancel stops the chat's report job if one is running and waits for its
// loop to exit. Cancelling a chat with no job is a no-op.
func (r *Reporter) Cancel(chatID int64) {
	r.mu.Lock()
	j := r.jobs[chatID]
	delete(r.jobs, chatID)
	r.mu.Unlock()

	if j != nil {
		j.cancel()
		<-j.done
		r.logger.Info().Int64("chat_id", chatID).Msg("Cancelled location report job")
	}
}

// Active reports whether a job is currently scheduled for the chat.
func (r *Reporter) Active(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[chatID] != nil
}

// Stop cancels every job and waits for their loops to exit.
func (r *Reporter) Stop() {
	r.mu.Lock()
	jobs := r.jobs
	r.jobs = make(map[int64]*job)
	r.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
		<-j.done
	}
}

// run is the per-chat report loop: an initial delay, then one firing per tick
// until the job is cancelled.
func (r *Reporter) run(ctx context.Context, j *job, chatID int64, name, idNumber string) {
	defer close(j.done)

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.delay):
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.fire(chatID, name, idNumber)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// fire performs a single best-effort delivery of the chat's latest position.
func (r *Reporter) fire(chatID int64, name, idNumber string) {
	// Delivery is bounded by its own timeout rather than the job context, so
	// cancelling the job never interrupts an attempt already in flight.
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	coords, ok, err := r.store.Get(ctx, chatID)
	if err != nil {
		r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to read last known location")
		return
	}
	if !ok {
		r.logger.Warn().Int64("chat_id", chatID).Msg("No location recorded for chat, skipping report")
		return
	}

	payload := Payload{
		Name:      name,
		IDNumber:  idNumber,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}
	if err := r.sender.SendLocation(ctx, payload); err != nil {
		// Each firing is independent; the job stays scheduled.
		r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to deliver location report")
		return
	}
	r.logger.Info().Int64("chat_id", chatID).Msg("Delivered location report")
}
