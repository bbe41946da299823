// Package speech narrates text through a one-utterance-at-a-time speech engine.
//
// A Sequencer splits text into sentence chunks and submits them in order, each one
// only after the previous finished. Every Narrate call starts a new sequence; older
// sequences notice at their next chunk boundary and stop without submitting more.
package speech

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lumix-edu/lumix-core/metrics"
)

type Sequencer struct {
	engine Engine
	phon   *Phonetics
	log    *logrus.Entry

	mu       sync.Mutex
	seq      uint64
	muted    bool
	inflight chan struct{} // closed when the utterance in flight completes
}

// NewSequencer returns a Sequencer; a nil engine makes every Narrate a no-op.
func NewSequencer(e Engine, phon *Phonetics, log *logrus.Entry) *Sequencer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Sequencer{engine: e, phon: phon, log: log.WithField("component", "speech")}
}

func (s *Sequencer) available() bool {
	if s.engine == nil {
		return false
	}
	if a, ok := s.engine.(Availability); ok {
		return a.Available()
	}
	return true
}

// Narrate supersedes any narration in progress and plays text in locale. The
// returned channel is closed once this sequence finished or was abandoned.
func (s *Sequencer) Narrate(text, locale string) <-chan struct{} {
	done := make(chan struct{})
	if !s.available() || strings.TrimSpace(text) == "" {
		close(done)
		return done
	}

	s.mu.Lock()
	if s.muted {
		s.mu.Unlock()
		close(done)
		return done
	}
	s.seq++
	id := s.seq
	s.mu.Unlock()

	s.engine.Cancel()

	chunks := Chunk(s.phon.Apply(locale, text))
	s.log.WithFields(logrus.Fields{"sequence": id, "chunks": len(chunks), "locale": locale}).Debug("narrate")
	go s.play(id, locale, chunks, done)
	return done
}

func (s *Sequencer) play(id uint64, locale string, chunks []string, done chan struct{}) {
	defer close(done)
	for i, text := range chunks {
		res, fin, ok := s.submit(id, Utterance{Text: text, Locale: locale, SequenceID: id})
		if !ok {
			metrics.SpeechChunks.WithLabelValues("stale").Inc()
			s.log.WithFields(logrus.Fields{"sequence": id, "chunk": i}).Debug("sequence superseded")
			return
		}
		err := <-res
		close(fin)
		if err != nil {
			if errors.Is(err, ErrCanceled) && !s.current(id) {
				metrics.SpeechChunks.WithLabelValues("stale").Inc()
			} else {
				metrics.SpeechChunks.WithLabelValues("failed").Inc()
				s.log.WithError(err).WithField("sequence", id).Debug("speech engine failed")
			}
			return
		}
		metrics.SpeechChunks.WithLabelValues("spoken").Inc()
	}
}

// submit hands u to the engine if sequence id is still current, waiting first for
// any utterance still in flight. The check and the submission happen under s.mu,
// so no chunk of a superseded sequence is submitted once Narrate bumped s.seq.
func (s *Sequencer) submit(id uint64, u Utterance) (<-chan error, chan struct{}, bool) {
	for {
		s.mu.Lock()
		if s.seq != id {
			s.mu.Unlock()
			return nil, nil, false
		}
		if prev := s.inflight; prev != nil {
			select {
			case <-prev:
			default:
				s.mu.Unlock()
				<-prev
				continue
			}
		}
		fin := make(chan struct{})
		s.inflight = fin
		res := s.engine.Speak(u)
		s.mu.Unlock()
		return res, fin, true
	}
}

func (s *Sequencer) current(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == id
}

// Stop abandons the current sequence and silences the engine.
func (s *Sequencer) Stop() {
	if s.engine == nil {
		return
	}
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()
	s.engine.Cancel()
}

// Mute makes later Narrate calls silent; a narration already playing continues.
func (s *Sequencer) Mute() {
	s.mu.Lock()
	s.muted = true
	s.mu.Unlock()
}

func (s *Sequencer) Unmute() {
	s.mu.Lock()
	s.muted = false
	s.mu.Unlock()
}

func (s *Sequencer) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}
