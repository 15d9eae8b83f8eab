// Package capture drives a single photo or video acquisition from a camera
// device. The session is a finite state machine: every transition is guarded
// by the current state, the device stream is released on every exit path,
// and the countdown and recording watchdog run on an injectable clock so the
// whole machine can be exercised without real hardware.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Mode selects what the session will produce.
type Mode string

const (
	// ModePhoto acquires a video-only stream and grabs a single still frame.
	ModePhoto Mode = "photo"
	// ModeVideo acquires an audio+video stream and records continuously.
	ModeVideo Mode = "video"
)

// State names the session's position in the capture state machine.
type State string

const (
	StateIdle         State = "idle"
	StateStreaming    State = "streaming"
	StateCountingDown State = "counting-down"
	StateRecording    State = "recording"
)

const (
	countdownTicks = 3
	tickInterval   = time.Second

	// MaxRecordingDuration is the hard cap on continuous recording. The
	// watchdog forces a stop once it elapses, regardless of the caller.
	MaxRecordingDuration = 30 * time.Second
)

var (
	// ErrDeviceUnavailable means the camera could not be acquired. The
	// condition is retryable once the user grants access.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrSessionBusy means a stream is already open on this session.
	ErrSessionBusy = errors.New("capture session already has an open stream")
	// ErrInvalidState means the requested operation is not legal in the
	// session's current state or mode.
	ErrInvalidState = errors.New("operation not valid in current capture state")
	// ErrRecordingLost means the device was lost mid-recording and the
	// partial artifact was discarded.
	ErrRecordingLost = errors.New("recording interrupted, partial video discarded")
)

// ArtifactKind enum
type ArtifactKind string

const (
	Photo ArtifactKind = "photo"
	Video ArtifactKind = "video"
)

// Artifact is a finished capture, ready to attach to a report.
type Artifact struct {
	Kind ArtifactKind
	Name string
	Data []byte
}

// Stream is an open device stream.
type Stream interface {
	// Still grabs a single frame from the live stream.
	Still() ([]byte, error)
	// StartRecording begins buffering media chunks.
	StartRecording() error
	// StopRecording stops buffering and returns the recorded chunks.
	StopRecording() ([][]byte, error)
	// Close releases the device.
	Close() error
}

// Device acquires camera streams. Tests inject a fake.
type Device interface {
	Open(mode Mode) (Stream, error)
}

// Timer is a stoppable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The system clock delegates to time.AfterFunc;
// tests drive transitions deterministically with a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Session owns one camera stream and produces at most one artifact per
// open/capture cycle. Callbacks are invoked outside the session lock and
// must not call back into the session.
type Session struct {
	// OnTick reports the remaining countdown after each tick.
	OnTick func(remaining int)
	// OnArtifact receives the finished photo or video.
	OnArtifact func(Artifact)
	// OnError surfaces asynchronous capture failures.
	OnError func(error)

	device Device
	clock  Clock

	mu        sync.Mutex
	state     State
	mode      Mode
	stream    Stream
	remaining int
	countdown Timer
	watchdog  Timer
}

// NewSession creates an idle session on the real clock.
func NewSession(device Device) *Session {
	return NewSessionWithClock(device, systemClock{})
}

// NewSessionWithClock creates an idle session with an injected clock.
func NewSessionWithClock(device Device, clock Clock) *Session {
	return &Session{device: device, clock: clock, state: StateIdle}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open acquires a camera stream for the given mode. Fails with
// ErrDeviceUnavailable when the device cannot be acquired; the session stays
// idle and Open may be retried.
func (s *Session) Open(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrSessionBusy
	}

	stream, err := s.device.Open(mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.mode = mode
	s.state = StateStreaming
	return nil
}

// CapturePhoto starts the countdown toward a still frame. Calling it again
// while the countdown runs is a no-op.
func (s *Session) CapturePhoto() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCountingDown {
		return nil
	}
	if s.state != StateStreaming || s.mode != ModePhoto {
		return ErrInvalidState
	}

	s.state = StateCountingDown
	s.remaining = countdownTicks
	s.countdown = s.clock.AfterFunc(tickInterval, s.tick)
	return nil
}

func (s *Session) tick() {
	s.mu.Lock()

	// The countdown may have been canceled by Close.
	if s.state != StateCountingDown {
		s.mu.Unlock()
		return
	}

	s.remaining--
	remaining := s.remaining

	var artifact *Artifact
	var tickErr error

	if remaining > 0 {
		s.countdown = s.clock.AfterFunc(tickInterval, s.tick)
	} else {
		frame, err := s.stream.Still()
		s.releaseLocked()
		if err != nil {
			tickErr = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		} else {
			artifact = &Artifact{Kind: Photo, Name: "photo.png", Data: frame}
		}
	}

	onTick, onArtifact, onError := s.OnTick, s.OnArtifact, s.OnError
	s.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if tickErr != nil && onError != nil {
		onError(tickErr)
	}
	if artifact != nil && onArtifact != nil {
		onArtifact(*artifact)
	}
}

// StartRecording begins recording. Valid only on an open video stream.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStreaming || s.mode != ModeVideo {
		return ErrInvalidState
	}

	if err := s.stream.StartRecording(); err != nil {
		return err
	}

	s.state = StateRecording
	s.watchdog = s.clock.AfterFunc(MaxRecordingDuration, s.watchdogStop)
	return nil
}

func (s *Session) watchdogStop() {
	// The hard cap fires exactly like a caller-initiated stop.
	_ = s.StopRecording()
}

// StopRecording ends the recording and delivers the concatenated chunks as a
// single video artifact via OnArtifact. While not recording it is a no-op.
// If the device was lost mid-recording the partial data is discarded and
// ErrRecordingLost is reported.
func (s *Session) StopRecording() error {
	s.mu.Lock()

	if s.state != StateRecording {
		s.mu.Unlock()
		return nil
	}

	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}

	chunks, err := s.stream.StopRecording()
	s.releaseLocked()

	var artifact *Artifact
	var stopErr error

	if err != nil {
		stopErr = fmt.Errorf("%w: %v", ErrRecordingLost, err)
	} else {
		var data []byte
		for _, chunk := range chunks {
			data = append(data, chunk...)
		}
		artifact = &Artifact{Kind: Video, Name: "video.mp4", Data: data}
	}

	onArtifact, onError := s.OnArtifact, s.OnError
	s.mu.Unlock()

	if stopErr != nil {
		if onError != nil {
			onError(stopErr)
		}
		return stopErr
	}
	if onArtifact != nil {
		onArtifact(*artifact)
	}
	return nil
}

// Close releases the device stream and cancels any pending countdown or
// recording. Safe to call from any state, any number of times.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

// releaseLocked stops timers, closes the stream and returns to idle.
// Callers must hold s.mu.
func (s *Session) releaseLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.state = StateIdle
}
