package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerTick = 80 * time.Millisecond

// spinner redraws one status line on w, with the time spent so far, while a
// slow step runs (connecting to redis). The line is wiped when it stops.
type spinner struct {
	w       io.Writer
	msg     string
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	stopOnce sync.Once
	mu       sync.Mutex
	width    int // runes in the last drawn line
}

// newSpinner returns a spinner that also stops when ctx ends.
func newSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{w: w, msg: msg, ctx: ctx, cancel: cancel, stopped: make(chan struct{})}
}

// Start draws frames in the background until Stop or cancellation.
func (s *spinner) Start() {
	start := time.Now()
	go func() {
		defer close(s.stopped)
		tick := time.NewTicker(spinnerTick)
		defer tick.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-tick.C:
				s.draw(spinnerFrames[frame%len(spinnerFrames)], time.Since(start))
			}
		}
	}()
}

// Stop ends the animation and waits for the line to be cleared. Extra calls
// do nothing.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

func (s *spinner) draw(frame rune, elapsed time.Duration) {
	text := fmt.Sprintf("%s (%.1fs)", s.msg, elapsed.Seconds())
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(string(frame)), StyleDim.Render(text))
	s.width = 2 + utf8.RuneCountInString(text)
}

func (s *spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
}
