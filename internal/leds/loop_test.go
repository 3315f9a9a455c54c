package leds

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingTransmitter keeps every frame it is asked to send.
type recordingTransmitter struct {
	mu     sync.Mutex
	frames []*Frame
	err    error
	sent   chan struct{}
}

func newRecordingTransmitter() *recordingTransmitter {
	return &recordingTransmitter{sent: make(chan struct{}, 16)}
}

func (r *recordingTransmitter) Transmit(ctx context.Context, frame *Frame) error {
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	err := r.err
	r.mu.Unlock()
	select {
	case r.sent <- struct{}{}:
	default:
	}
	return err
}

func (r *recordingTransmitter) Close() error { return nil }

func (r *recordingTransmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestNewLoop(t *testing.T) {
	b, _ := NewBuffer(1)

	if _, err := NewLoop(b, NopTransmitter{}, Timing{}, time.Second); err == nil {
		t.Error("NewLoop() with zero timing should fail")
	}

	l, err := NewLoop(b, NopTransmitter{}, WS2812Timing, 0)
	if err != nil {
		t.Fatalf("NewLoop() error = %v", err)
	}
	if l.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", l.Interval(), DefaultInterval)
	}
}

func TestLoop_CycleSendsSnapshot(t *testing.T) {
	b, _ := NewBuffer(2)
	b.Replace([]byte{1, 2, 3})
	tx := newRecordingTransmitter()
	l, _ := NewLoop(b, tx, WS2812Timing, time.Second)

	var observed []byte
	l.AddObserver(ObserverFunc(func(snapshot []byte, frame *Frame, took time.Duration, err error) {
		observed = snapshot
	}))

	if err := l.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}

	if tx.count() != 1 {
		t.Fatalf("frames sent = %d, want 1", tx.count())
	}
	want := []byte{1, 2, 3, 0, 0, 0}
	if got := WS2812Timing.Decode(tx.frames[0]); !bytes.Equal(got, want) {
		t.Errorf("transmitted pixels = %v, want %v", got, want)
	}
	if !bytes.Equal(observed, want) {
		t.Errorf("observer snapshot = %v, want %v", observed, want)
	}
}

func TestLoop_CoalescesWrites(t *testing.T) {
	b, _ := NewBuffer(1)
	tx := newRecordingTransmitter()
	l, _ := NewLoop(b, tx, WS2812Timing, time.Second)

	b.SetPixel(0, 1, 1, 1)
	b.SetPixel(0, 2, 2, 2)
	b.Replace([]byte{3, 3, 3})

	if err := l.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if tx.count() != 1 {
		t.Fatalf("frames sent = %d, want 1", tx.count())
	}
	if got := WS2812Timing.Decode(tx.frames[0]); !bytes.Equal(got, []byte{3, 3, 3}) {
		t.Errorf("transmitted pixels = %v, want [3 3 3]", got)
	}
}

func TestLoop_CycleReportsTransmitError(t *testing.T) {
	b, _ := NewBuffer(1)
	tx := newRecordingTransmitter()
	tx.err = errors.New("bus fault")
	l, _ := NewLoop(b, tx, WS2812Timing, time.Second)

	var observedErr error
	l.AddObserver(ObserverFunc(func(_ []byte, _ *Frame, _ time.Duration, err error) {
		observedErr = err
	}))

	if err := l.Cycle(context.Background()); !errors.Is(err, tx.err) {
		t.Errorf("Cycle() error = %v, want %v", err, tx.err)
	}
	if !errors.Is(observedErr, tx.err) {
		t.Errorf("observer error = %v, want %v", observedErr, tx.err)
	}
}

func TestLoop_RunKeepsGoingAfterErrors(t *testing.T) {
	b, _ := NewBuffer(1)
	tx := newRecordingTransmitter()
	tx.err = errors.New("bus fault")
	l, _ := NewLoop(b, tx, WS2812Timing, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-tx.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d frames sent before timeout", i)
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestNopTransmitter(t *testing.T) {
	frame := WS2812Timing.Encode([]byte{1})
	if err := (NopTransmitter{}).Transmit(context.Background(), frame); err != nil {
		t.Errorf("Transmit() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (NopTransmitter{}).Transmit(ctx, frame); !errors.Is(err, context.Canceled) {
		t.Errorf("Transmit() with cancelled context error = %v", err)
	}
}
