package runtime

import (
	"context"
	"sync"

	deadlock "github.com/sasha-s/go-deadlock"

	kerrors "kernelc/internal/errors"
)

// command is one unit of work submitted to a Stream: a copy, a launch,
// or a synchronize barrier. Commands on the same stream run in
// submission order by the stream's single worker goroutine (§5
// "Commands submitted to the same stream complete in submission order").
type command struct {
	run  func(ctx context.Context) error
	ctx  context.Context
	done chan error
}

// Stream is a FIFO command queue executed by one dedicated worker
// goroutine, matching §5's "each stream is a FIFO of commands executed
// in order by a dedicated worker". Submitting to a closed or poisoned
// stream fails immediately with DeviceUnavailable.
type Stream struct {
	mu       deadlock.Mutex
	queue    chan *command
	done     chan struct{}
	closed   bool
	poisoned bool
	wg       sync.WaitGroup
}

// NewStream starts a stream's worker goroutine. depth bounds how many
// commands may be queued ahead of the worker before Submit blocks.
func NewStream(depth int) *Stream {
	if depth <= 0 {
		depth = 64
	}
	s := &Stream{queue: make(chan *command, depth), done: make(chan struct{})}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Stream) run() {
	defer s.wg.Done()
	for {
		select {
		case cmd, ok := <-s.queue:
			if !ok {
				return
			}
			s.execute(cmd)
		case <-s.done:
			s.drain()
			return
		}
	}
}

// drain fails every command still queued once the stream is closing,
// rather than silently dropping the channel's buffered entries.
func (s *Stream) drain() {
	for {
		select {
		case cmd := <-s.queue:
			cmd.done <- kerrors.CanceledError("stream closed").Build()
		default:
			return
		}
	}
}

func (s *Stream) execute(cmd *command) {
	if cmd.ctx.Err() != nil {
		cmd.done <- kerrors.CanceledError("command").Build()
		return
	}
	if s.isPoisoned() {
		cmd.done <- kerrors.DeviceUnavailableError("stream", "accelerator poisoned by a prior device fault").Build()
		return
	}
	cmd.done <- cmd.run(cmd.ctx)
}

func (s *Stream) isPoisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}

// Poison marks the stream's accelerator as faulted; §5/§7: "the
// accelerator is marked poisoned and subsequent operations fail with
// DeviceUnavailable". Already-queued commands not yet executed still
// observe the poisoned flag at execute time.
func (s *Stream) Poison() {
	s.mu.Lock()
	s.poisoned = true
	s.mu.Unlock()
}

// Submit enqueues a command and blocks until it completes, is
// canceled, or the stream is closed. This is the suspension point of
// §5 ("Host code may suspend awaiting ... a launch completion").
func (s *Stream) Submit(ctx context.Context, run func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return kerrors.DeviceUnavailableError("stream", "stream is closed").Build()
	}
	s.mu.Unlock()

	cmd := &command{run: run, ctx: ctx, done: make(chan error, 1)}
	select {
	case s.queue <- cmd:
	case <-ctx.Done():
		return kerrors.CanceledError("submit").Build()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return kerrors.CanceledError("wait").Build()
	}
}

// Synchronize blocks until every command submitted so far has
// completed, by submitting a no-op and waiting for its turn in the FIFO.
func (s *Stream) Synchronize(ctx context.Context) error {
	return s.Submit(ctx, func(context.Context) error { return nil })
}

// Close stops the worker; queued-but-not-yet-run commands are failed
// Canceled (§5: "subsequent queued commands on the same stream are dropped").
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	return nil
}
