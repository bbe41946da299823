package speech

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrCanceled is reported by engines for an utterance cut short by Cancel.
var ErrCanceled = errors.New("utterance canceled")

type Utterance struct {
	Text       string
	Locale     string
	SequenceID uint64
}

// Engine is a speech synthesizer that plays one utterance at a time.
type Engine interface {
	// Speak starts u and returns a channel that receives exactly one value when
	// u finished (nil) or failed.
	Speak(u Utterance) <-chan error
	// Cancel stops whatever is playing.
	Cancel()
}

// Availability is implemented by engines that may be missing at runtime.
type Availability interface {
	Available() bool
}

const DefaultWPS = 2.5

// WriterEngine "speaks" by writing each utterance as a line to w and holding it
// for as long as it would take to say at wps words per second.
type WriterEngine struct {
	w   io.Writer
	wps float64

	mu     sync.Mutex
	cancel chan struct{}
}

func NewWriterEngine(w io.Writer, wps float64) *WriterEngine {
	if wps < 0 {
		wps = DefaultWPS
	}
	return &WriterEngine{w: w, wps: wps, cancel: make(chan struct{})}
}

func (e *WriterEngine) Available() bool { return e != nil && e.w != nil }

func (e *WriterEngine) Speak(u Utterance) <-chan error {
	res := make(chan error, 1)

	e.mu.Lock()
	cancel := e.cancel
	_, err := fmt.Fprintf(e.w, "[%s] %s\n", u.Locale, strings.TrimSpace(u.Text))
	e.mu.Unlock()
	if err != nil {
		res <- errors.Wrap(err, "speech write")
		return res
	}
	if e.wps == 0 {
		res <- nil
		return res
	}

	d := time.Duration(float64(len(strings.Fields(u.Text))) / e.wps * float64(time.Second))
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			res <- nil
		case <-cancel:
			res <- ErrCanceled
		}
	}()
	return res
}

func (e *WriterEngine) Cancel() {
	e.mu.Lock()
	close(e.cancel)
	e.cancel = make(chan struct{})
	e.mu.Unlock()
}
