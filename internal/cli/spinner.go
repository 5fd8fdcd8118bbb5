package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/partscout/pkg/supplier"
)

// Spinner shows that a search is running and how many of its suppliers have
// answered so far. It counts finished handles, not printed records, so the
// count keeps moving while --wait=order holds back a slow supplier.
type Spinner struct {
	w       io.Writer
	term    string
	handles []*supplier.Handle

	answered atomic.Int32
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	started  bool
	stopOnce sync.Once
	frames   []string

	mu    sync.Mutex // guards writes to w
	width int        // width of the last rendered line
}

// newSearchSpinner creates a spinner for the handles of one search term. It
// stops by itself when ctx is cancelled.
func newSearchSpinner(ctx context.Context, w io.Writer, term string, handles []*supplier.Handle) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		term:    term,
		handles: handles,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins counting answers and animating.
func (s *Spinner) Start() {
	s.started = true
	for _, h := range s.handles {
		go func(h *supplier.Handle) {
			select {
			case <-h.Done():
				s.answered.Add(1)
			case <-s.ctx.Done():
			}
		}(h)
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.render(s.frames[i%len(s.frames)])
			}
		}
	}()
}

// Answered returns how many suppliers have finished.
func (s *Spinner) Answered() int {
	return int(s.answered.Load())
}

func (s *Spinner) message() string {
	return fmt.Sprintf("Searching %s · %d/%d suppliers answered", s.term, s.Answered(), len(s.handles))
}

func (s *Spinner) render(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message())
	fmt.Fprintf(s.w, "\r%s", line)
	s.width = max(s.width, len([]rune(frame))+1+len([]rune(s.message())))
}

// clear blanks the spinner line. The caller must not hold mu.
func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Spinner) clearLocked() {
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// Suspend clears the spinner line and runs print while the animation is
// held, so records are not interleaved with spinner frames.
func (s *Spinner) Suspend(print func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	print()
}

// Stop stops the spinner and clears its line. It is safe to call more than
// once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
		s.clear()
	})
}
