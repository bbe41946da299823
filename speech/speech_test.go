package speech

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records submissions. With auto set every utterance finishes at once;
// otherwise the test finishes it with complete(). cancelNoop models engines that
// let the current utterance run to its end.
type fakeEngine struct {
	auto       bool
	cancelNoop bool

	mu          sync.Mutex
	spoken      []Utterance
	pending     chan error
	inflight    int
	maxInflight int
	cancels     int

	submitted chan Utterance
}

func newFakeEngine(auto bool) *fakeEngine {
	return &fakeEngine{auto: auto, submitted: make(chan Utterance, 64)}
}

func (f *fakeEngine) Speak(u Utterance) <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	res := make(chan error, 1)
	if f.auto {
		f.inflight--
		res <- nil
	} else {
		f.pending = res
	}
	f.submitted <- u
	return res
}

func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	if f.cancelNoop || f.pending == nil {
		return
	}
	f.inflight--
	f.pending <- ErrCanceled
	f.pending = nil
}

func (f *fakeEngine) complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return
	}
	f.inflight--
	f.pending <- nil
	f.pending = nil
}

func (f *fakeEngine) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.spoken {
		out = append(out, u.Text)
	}
	return out
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("narration did not finish")
	}
}

func nextSubmitted(t *testing.T, f *fakeEngine) Utterance {
	t.Helper()
	select {
	case u := <-f.submitted:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("nothing submitted")
	}
	return Utterance{}
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"Hello world.", " How are you?"}, Chunk("Hello world. How are you?"))
	assert.Equal(t, []string{"Wait!?", " Really..."}, Chunk("Wait!? Really..."))
	assert.Equal(t, []string{"no punctuation here"}, Chunk("no punctuation here"))
	assert.Equal(t, []string{"One.", " tail"}, Chunk("One. tail"))
	assert.Empty(t, Chunk("   "))
	assert.Equal(t, []string{"Done."}, Chunk("Done.   "))
}

func TestChunkBoundAndConcat(t *testing.T) {
	inputs := []string{
		"Hello world. How are you?",
		"A. B! C? D",
		"Ends cleanly.",
		"Multi... marks!! here?? ok",
		"سلام. آپ کیسے ہیں؟ ok!",
	}
	for _, in := range inputs {
		n := 0
		for _, r := range in {
			if isTerminal(r) {
				n++
			}
		}
		got := Chunk(in)
		assert.LessOrEqual(t, len(got), n+1, in)
		assert.Equal(t, strings.TrimSpace(in), strings.TrimSpace(strings.Join(got, "")), in)
	}
}

func TestPhonetics(t *testing.T) {
	p := DefaultPhonetics()
	assert.Equal(t, "Welcome to لومکس.", p.Apply("ur", "Welcome to lumix."))
	assert.Equal(t, "نووا uses اے آئی", p.Apply("ur-PK", "Nova uses AI"))
	// whole words only
	assert.Equal(t, "MAID and RAID", p.Apply("ur", "MAID and RAID"))
	// no table for the locale
	assert.Equal(t, "Welcome to LumiX.", p.Apply("en-US", "Welcome to LumiX."))
	var nilP *Phonetics
	assert.Equal(t, "x", nilP.Apply("ur", "x"))
}

func TestNarrateInOrder(t *testing.T) {
	e := newFakeEngine(true)
	s := NewSequencer(e, DefaultPhonetics(), nil)

	waitDone(t, s.Narrate("Hello world. How are you?", "ur"))

	assert.Equal(t, []string{"Hello world.", " How are you?"}, e.texts())
	assert.Equal(t, 1, e.maxInflight)
	for _, u := range e.spoken {
		assert.Equal(t, uint64(1), u.SequenceID)
		assert.Equal(t, "ur", u.Locale)
	}
}

func TestNarrateWaitsForCompletion(t *testing.T) {
	e := newFakeEngine(false)
	s := NewSequencer(e, nil, nil)

	done := s.Narrate("One. Two.", "en")
	assert.Equal(t, "One.", nextSubmitted(t, e).Text)

	select {
	case u := <-e.submitted:
		t.Fatalf("%q submitted before the first chunk finished", u.Text)
	case <-time.After(50 * time.Millisecond):
	}

	e.complete()
	assert.Equal(t, " Two.", nextSubmitted(t, e).Text)
	e.complete()
	waitDone(t, done)
}

func TestNewerNarrationWins(t *testing.T) {
	e := newFakeEngine(false)
	e.cancelNoop = true
	s := NewSequencer(e, nil, nil)

	doneA := s.Narrate("One. Two. Three.", "en")
	assert.Equal(t, "One.", nextSubmitted(t, e).Text)

	doneB := s.Narrate("Four. Five.", "en")

	// "One." still plays to its end; its completion must not advance sequence A.
	e.complete()
	waitDone(t, doneA)

	u := nextSubmitted(t, e)
	assert.Equal(t, "Four.", u.Text)
	assert.Equal(t, uint64(2), u.SequenceID)
	e.complete()
	assert.Equal(t, " Five.", nextSubmitted(t, e).Text)
	e.complete()
	waitDone(t, doneB)

	assert.Equal(t, []string{"One.", "Four.", " Five."}, e.texts())
	assert.Equal(t, 1, e.maxInflight)
	assert.Equal(t, 2, e.cancels)
}

func TestNarrateCancelsEngine(t *testing.T) {
	e := newFakeEngine(false)
	s := NewSequencer(e, nil, nil)

	doneA := s.Narrate("First. Second.", "en")
	nextSubmitted(t, e)
	doneB := s.Narrate("Other.", "en")
	waitDone(t, doneA)

	assert.Equal(t, "Other.", nextSubmitted(t, e).Text)
	e.complete()
	waitDone(t, doneB)
	assert.Equal(t, []string{"First.", "Other."}, e.texts())
}

func TestMute(t *testing.T) {
	e := newFakeEngine(false)
	s := NewSequencer(e, nil, nil)

	done := s.Narrate("Keep talking. Please.", "en")
	nextSubmitted(t, e)

	s.Mute()
	assert.True(t, s.Muted())
	waitDone(t, s.Narrate("Ignored.", "en"))

	// the narration that was already playing continues
	e.complete()
	assert.Equal(t, " Please.", nextSubmitted(t, e).Text)
	e.complete()
	waitDone(t, done)

	s.Unmute()
	done = s.Narrate("Back.", "en")
	assert.Equal(t, "Back.", nextSubmitted(t, e).Text)
	e.complete()
	waitDone(t, done)
	assert.Equal(t, []string{"Keep talking.", " Please.", "Back."}, e.texts())
}

func TestStop(t *testing.T) {
	e := newFakeEngine(false)
	s := NewSequencer(e, nil, nil)
	done := s.Narrate("A. B. C.", "en")
	nextSubmitted(t, e)
	s.Stop()
	waitDone(t, done)
	assert.Equal(t, []string{"A."}, e.texts())
}

func TestNoEngineIsNoop(t *testing.T) {
	s := NewSequencer(nil, nil, nil)
	waitDone(t, s.Narrate("Hello.", "en"))
	s.Stop()

	unavailable := NewSequencer(NewWriterEngine(nil, 0), nil, nil)
	waitDone(t, unavailable.Narrate("Hello.", "en"))
}

func TestWriterEngine(t *testing.T) {
	var buf bytes.Buffer
	s := NewSequencer(NewWriterEngine(&buf, 0), DefaultPhonetics(), nil)
	waitDone(t, s.Narrate("I am NOVA. Ask me anything!", "ur"))
	assert.Equal(t, "[ur] I am نووا.\n[ur] Ask me anything!\n", buf.String())
}

func TestWriterEngineCancel(t *testing.T) {
	var buf bytes.Buffer
	e := NewWriterEngine(&buf, 0.01)
	res := e.Speak(Utterance{Text: "a long pause", Locale: "en"})
	e.Cancel()
	select {
	case err := <-res:
		require.ErrorIs(t, err, ErrCanceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not end the utterance")
	}
}
