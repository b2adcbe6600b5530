package media

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/starford/laguz/internal/apperr"
)

// State is the recorder's lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateReviewing State = "reviewing"
)

// Stream is an open capture session. Read drains the captured samples so
// far; Close stops the capture.
type Stream interface {
	Read() ([]float64, error)
	Close() error
}

// CaptureDevice opens capture streams. Open fails with a permission error
// when the user denies microphone access.
type CaptureDevice interface {
	Open() (Stream, error)
}

// Take is a finished recording under review: its blob URL, waveform, and
// duration.
type Take struct {
	URL      string
	Waveform []float64
	Duration time.Duration
}

// SaveFunc receives the accepted take. Called exactly once per save.
type SaveFunc func(take Take)

// Recorder drives one microphone recording session at a time:
// idle -> recording -> reviewing -> idle. Starting over while reviewing
// discards the previous take, and every exit path revokes the blob URL it
// holds, so a session never leaks storage whichever way it ends.
type Recorder struct {
	mu      sync.Mutex
	device  CaptureDevice
	store   *BlobStore
	encode  func([]float64) []byte
	now     func() time.Time
	buckets int
	log     *slog.Logger

	state     State
	stream    Stream
	samples   []float64
	startedAt time.Time
	take      *Take
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock injects the time source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// WithWaveformBuckets sets how many peaks the review waveform holds.
func WithWaveformBuckets(n int) RecorderOption {
	return func(r *Recorder) { r.buckets = n }
}

// WithEncoder overrides how samples become stored bytes.
func WithEncoder(fn func([]float64) []byte) RecorderOption {
	return func(r *Recorder) { r.encode = fn }
}

// NewRecorder creates an idle recorder over the device and blob store.
func NewRecorder(device CaptureDevice, store *BlobStore, log *slog.Logger, opts ...RecorderOption) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		device:  device,
		store:   store,
		encode:  encodePCM,
		now:     time.Now,
		buckets: 64,
		log:     log,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns how long the current recording has been running, in
// whole seconds. Zero outside recording.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return 0
	}
	return int(r.now().Sub(r.startedAt) / time.Second)
}

// Start opens the capture device and begins recording. A take under
// review is discarded first. A permission denial surfaces as
// ErrPermissionDenied and leaves the recorder idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return nil
	}
	r.discardLocked()

	stream, err := r.device.Open()
	if err != nil {
		r.state = StateIdle
		return fmt.Errorf("open capture: %v: %w", err, apperr.ErrPermissionDenied)
	}
	r.stream = stream
	r.samples = nil
	r.startedAt = r.now()
	r.state = StateRecording
	return nil
}

// Stop ends the capture and moves to review: the samples are encoded,
// stored under a blob URL, and folded into a waveform.
func (r *Recorder) Stop() (*Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return nil, fmt.Errorf("stop while %s: %w", r.state, apperr.ErrInvalidAttrs)
	}

	if chunk, err := r.stream.Read(); err == nil {
		r.samples = append(r.samples, chunk...)
	}
	if err := r.stream.Close(); err != nil {
		r.log.Warn("capture close failed", "error", err)
	}
	r.stream = nil

	take := &Take{
		URL:      r.store.Put(r.encode(r.samples)),
		Waveform: Peaks(r.samples, r.buckets),
		Duration: r.now().Sub(r.startedAt),
	}
	r.take = take
	r.samples = nil
	r.state = StateReviewing
	return take, nil
}

// Take returns the recording under review, if any.
func (r *Recorder) Take() *Take {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.take
}

// Save hands the reviewed take to the callback and returns to idle. The
// blob URL stays alive; it now belongs to the document. The callback runs
// once, outside the recorder's lock.
func (r *Recorder) Save(fn SaveFunc) error {
	r.mu.Lock()
	if r.state != StateReviewing || r.take == nil {
		r.mu.Unlock()
		return fmt.Errorf("save while %s: %w", r.state, apperr.ErrInvalidAttrs)
	}
	take := *r.take
	r.take = nil
	r.state = StateIdle
	r.mu.Unlock()

	if fn != nil {
		fn(take)
	}
	return nil
}

// Discard drops the reviewed take, revoking its blob URL, and returns to
// idle.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discardLocked()
	r.state = StateIdle
}

// Shutdown tears the session down from any state: a live capture is
// closed, a reviewed take is revoked. Used when the recording UI is
// hidden mid-session.
func (r *Recorder) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil {
		if err := r.stream.Close(); err != nil {
			r.log.Warn("capture close failed", "error", err)
		}
		r.stream = nil
		r.samples = nil
	}
	r.discardLocked()
	r.state = StateIdle
}

// discardLocked revokes the reviewed take's blob, if one is held.
func (r *Recorder) discardLocked() {
	if r.take != nil {
		r.store.Revoke(r.take.URL)
		r.take = nil
	}
}

// encodePCM packs samples as little-endian float64, a stand-in for a real
// audio codec.
func encodePCM(samples []float64) []byte {
	out := make([]byte, 0, len(samples)*8)
	for _, s := range samples {
		bits := math.Float64bits(s)
		for i := 0; i < 8; i++ {
			out = append(out, byte(bits>>(8*i)))
		}
	}
	return out
}
