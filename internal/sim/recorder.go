package sim

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

const (
	// pullQueueSize is the buffer size for the pull queue.
	// If full, Record blocks until the writer catches up.
	pullQueueSize = 8192

	// batchFlushSize is the number of pulls that triggers an immediate flush.
	batchFlushSize = 512

	// flushInterval is how often pending pulls are flushed.
	flushInterval = 50 * time.Millisecond
)

// Recorder observes every reward a run sees.
type Recorder interface {
	Record(round, arm int, reward float64)
}

// PullSink persists batches of pulls. storage.Storage satisfies it.
type PullSink interface {
	RecordPulls(pulls []storage.Pull) error
}

// PullRecorder writes a run's trace to a PullSink in the background.
type PullRecorder struct {
	sink     PullSink
	runID    string
	queue    chan storage.Pull
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	written  atomic.Int64
	failed   atomic.Int64
}

// NewPullRecorder starts a recorder tagging every pull with runID.
func NewPullRecorder(sink PullSink, runID string) *PullRecorder {
	r := &PullRecorder{
		sink:     sink,
		runID:    runID,
		queue:    make(chan storage.Pull, pullQueueSize),
		stopChan: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.processPulls()

	return r
}

// Record enqueues a pull. A full queue blocks the caller, so a run never
// outpaces its trace.
func (r *PullRecorder) Record(round, arm int, reward float64) {
	r.queue <- storage.Pull{RunID: r.runID, Round: round, Arm: arm, Reward: reward}
}

// Stop gracefully shuts down the recorder, flushing queued pulls.
// Record must not be called after Stop.
func (r *PullRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
		if n := r.failed.Load(); n > 0 {
			log.Printf("Warning: %d pull events for run %s were not stored", n, r.runID)
		}
	})
}

// Failed returns the number of pulls the sink rejected.
func (r *PullRecorder) Failed() int64 {
	return r.failed.Load()
}

// Written returns the number of pulls the sink committed.
func (r *PullRecorder) Written() int64 {
	return r.written.Load()
}

// processPulls runs in the background, batching and flushing pulls.
func (r *PullRecorder) processPulls() {
	defer r.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]storage.Pull, 0, batchFlushSize)

	for {
		select {
		case pull := <-r.queue:
			batch = append(batch, pull)
			if len(batch) >= batchFlushSize {
				r.flush(batch)
				batch = make([]storage.Pull, 0, batchFlushSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = make([]storage.Pull, 0, batchFlushSize)
			}

		case <-r.stopChan:
			// Drain whatever is still queued, then exit
			for {
				select {
				case pull := <-r.queue:
					batch = append(batch, pull)
					if len(batch) >= batchFlushSize {
						r.flush(batch)
						batch = make([]storage.Pull, 0, batchFlushSize)
					}
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of pulls to the sink.
func (r *PullRecorder) flush(pulls []storage.Pull) {
	if len(pulls) == 0 {
		return
	}
	if err := r.sink.RecordPulls(pulls); err != nil {
		log.Printf("Warning: failed to record pulls: %v", err)
		r.failed.Add(int64(len(pulls)))
		return
	}
	r.written.Add(int64(len(pulls)))
}
