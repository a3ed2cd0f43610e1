package s1

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Worker defaults.
const (
	// defaultOpTimeout bounds each individual link operation.
	defaultOpTimeout = 10 * time.Second

	// defaultQueueSize is the command channel depth. Commands beyond
	// this block the caller until the worker drains.
	defaultQueueSize = 16
)

// commandKind discriminates the operations the worker executes.
type commandKind int

const (
	cmdConnect commandKind = iota
	cmdDisconnect
	cmdRead
	cmdWrite
	cmdStartPoll
	cmdStopPoll
)

// Result carries the outcome of a single command. Exactly one Result is
// delivered per submitted command.
type Result struct {
	// Data holds the payload for read commands, nil otherwise.
	Data []byte

	// Err is non-nil if the operation failed.
	Err error
}

// PollResult is one sample from a repeating poll.
type PollResult struct {
	// Characteristic that was read.
	Characteristic Characteristic

	// Data is the raw payload.
	Data []byte

	// Value is the decoded payload (BoilerReading, ApplianceTime,
	// WeeklySchedule or bool depending on the characteristic).
	Value any

	// Err is non-nil if this read attempt failed. The poll continues
	// after failed reads.
	Err error

	// Timestamp records when the sample was taken.
	Timestamp time.Time
}

// command is one unit of work for the worker goroutine.
//
// result is 1-buffered and single-use: the worker (or the drain during
// shutdown) performs exactly one send and never closes it.
type command struct {
	kind     commandKind
	address  string
	char     Characteristic
	data     []byte
	interval time.Duration
	result   chan Result
	stream   chan PollResult
}

// pollTask tracks the currently active poll, if any. Owned by the
// worker goroutine.
type pollTask struct {
	cancel chan struct{}
	done   chan struct{}
}

// WorkerOptions configures a ConnectionWorker.
type WorkerOptions struct {
	// Link is the transport to the appliance (required). The worker
	// goroutine becomes its sole caller.
	Link Link

	// Logger receives worker lifecycle and failure logs (required).
	Logger Logger

	// OpTimeout bounds each link operation. Defaults to 10s.
	OpTimeout time.Duration

	// QueueSize is the command queue depth. Defaults to 16.
	QueueSize int
}

// WorkerStats is a point-in-time snapshot of worker activity counters.
type WorkerStats struct {
	CommandsProcessed uint64
	CommandsFailed    uint64
	PollSamples       uint64
	Reconnects        uint64
}

// ConnectionWorker serializes all appliance access through a single
// goroutine that owns the Link. Callers submit commands over a channel
// and receive results on per-command channels, so the BLE session never
// sees concurrent operations regardless of how many goroutines use the
// worker.
//
// At most one repeating poll is active at a time. Starting a new poll
// cancels the previous one and waits for its acknowledged termination
// before the new poll delivers its first sample.
type ConnectionWorker struct {
	link      Link
	logger    Logger
	opTimeout time.Duration

	cmds chan command

	// connected mirrors the worker goroutine's view of the session for
	// lock-free inspection by callers.
	connected atomic.Bool

	stopOnce sync.Once
	stopping chan struct{}
	done     chan struct{}

	commandsProcessed atomic.Uint64
	commandsFailed    atomic.Uint64
	pollSamples       atomic.Uint64
	reconnects        atomic.Uint64
}

// NewConnectionWorker validates opts, starts the worker goroutine and
// returns the running worker. Call Stop to shut it down.
func NewConnectionWorker(opts WorkerOptions) (*ConnectionWorker, error) {
	if opts.Link == nil {
		return nil, fmt.Errorf("s1: worker requires a link")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("s1: worker requires a logger")
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	w := &ConnectionWorker{
		link:      opts.Link,
		logger:    opts.Logger,
		opTimeout: opts.OpTimeout,
		cmds:      make(chan command, opts.QueueSize),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	go w.run()

	return w, nil
}

// Connect establishes the BLE session. Connecting while already
// connected succeeds without touching the link.
func (w *ConnectionWorker) Connect(ctx context.Context, address string) error {
	res, err := w.submit(ctx, command{kind: cmdConnect, address: address})
	if err != nil {
		return err
	}
	return res.Err
}

// Disconnect tears down the BLE session. Disconnecting while already
// disconnected is a no-op.
func (w *ConnectionWorker) Disconnect(ctx context.Context) error {
	res, err := w.submit(ctx, command{kind: cmdDisconnect})
	if err != nil {
		return err
	}
	return res.Err
}

// Read reads a characteristic's raw payload.
func (w *ConnectionWorker) Read(ctx context.Context, c Characteristic) ([]byte, error) {
	res, err := w.submit(ctx, command{kind: cmdRead, char: c})
	if err != nil {
		return nil, err
	}
	return res.Data, res.Err
}

// Write writes a characteristic's raw payload.
func (w *ConnectionWorker) Write(ctx context.Context, c Characteristic, data []byte) error {
	res, err := w.submit(ctx, command{kind: cmdWrite, char: c, data: data})
	if err != nil {
		return err
	}
	return res.Err
}

// Poll starts a repeating read of c at the given interval and returns
// the sample stream. Any previously active poll is cancelled and fully
// terminated before the new one delivers its first sample. The stream
// is closed when the poll ends.
func (w *ConnectionWorker) Poll(ctx context.Context, c Characteristic, interval time.Duration) (<-chan PollResult, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("s1: poll interval must be positive, got %v", interval)
	}
	stream := make(chan PollResult, 1)
	res, err := w.submit(ctx, command{kind: cmdStartPoll, char: c, interval: interval, stream: stream})
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return stream, nil
}

// StopPoll cancels the active poll, if any, and waits for its
// termination. A no-op when no poll is running.
func (w *ConnectionWorker) StopPoll(ctx context.Context) error {
	res, err := w.submit(ctx, command{kind: cmdStopPoll})
	if err != nil {
		return err
	}
	return res.Err
}

// IsConnected reports the worker's view of the session without going
// through the command queue.
func (w *ConnectionWorker) IsConnected() bool {
	return w.connected.Load()
}

// Stats returns a snapshot of the worker's activity counters.
func (w *ConnectionWorker) Stats() WorkerStats {
	return WorkerStats{
		CommandsProcessed: w.commandsProcessed.Load(),
		CommandsFailed:    w.commandsFailed.Load(),
		PollSamples:       w.pollSamples.Load(),
		Reconnects:        w.reconnects.Load(),
	}
}

// Stop shuts the worker down: the active poll is cancelled, queued
// commands are failed with ErrWorkerStopped, and the link is
// disconnected best-effort. Safe to call more than once; Stop blocks
// until shutdown completes.
func (w *ConnectionWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopping)
	})
	<-w.done
}

// submit enqueues cmd and waits for its result. The result channel is
// allocated here so each command gets a fresh 1-buffered channel.
func (w *ConnectionWorker) submit(ctx context.Context, cmd command) (Result, error) {
	cmd.result = make(chan Result, 1)

	select {
	case w.cmds <- cmd:
	case <-w.stopping:
		return Result{}, ErrWorkerStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		return res, nil
	case <-ctx.Done():
		// The worker will still deliver into the buffered channel;
		// nothing blocks and the orphaned result is collected.
		return Result{}, ctx.Err()
	}
}

// run is the worker goroutine. It is the only caller of the link.
func (w *ConnectionWorker) run() {
	defer close(w.done)

	var poll *pollTask

	for {
		select {
		case <-w.stopping:
			w.shutdown(poll)
			return
		case cmd := <-w.cmds:
			poll = w.execute(cmd, poll)
		}
	}
}

// execute runs one command and delivers exactly one result. Returns the
// (possibly updated) active poll task.
func (w *ConnectionWorker) execute(cmd command, poll *pollTask) *pollTask {
	var res Result

	switch cmd.kind {
	case cmdConnect:
		res.Err = w.doConnect(cmd.address)
	case cmdDisconnect:
		poll = w.cancelPoll(poll)
		res.Err = w.doDisconnect()
	case cmdRead:
		res.Data, res.Err = w.doRead(cmd.char)
	case cmdWrite:
		res.Err = w.doWrite(cmd.char, cmd.data)
	case cmdStartPoll:
		poll = w.cancelPoll(poll)
		poll = w.startPoll(cmd.char, cmd.interval, cmd.stream)
	case cmdStopPoll:
		poll = w.cancelPoll(poll)
	default:
		res.Err = fmt.Errorf("%w: unknown command kind %d", ErrUnsupportedOperation, cmd.kind)
	}

	w.commandsProcessed.Add(1)
	if res.Err != nil {
		w.commandsFailed.Add(1)
	}
	cmd.result <- res

	return poll
}

func (w *ConnectionWorker) doConnect(address string) error {
	if w.connected.Load() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opTimeout)
	defer cancel()

	if err := w.link.Connect(ctx, address); err != nil {
		w.logger.Error("connect failed", "address", address, "error", err)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	w.connected.Store(true)
	w.reconnects.Add(1)
	w.logger.Info("connected to appliance", "address", address)
	return nil
}

func (w *ConnectionWorker) doDisconnect() error {
	if !w.connected.Load() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opTimeout)
	defer cancel()

	err := w.link.Disconnect(ctx)
	w.connected.Store(false)
	if err != nil {
		w.logger.Error("disconnect failed", "error", err)
		return fmt.Errorf("%w: %w", ErrLinkFailure, err)
	}
	w.logger.Info("disconnected from appliance")
	return nil
}

func (w *ConnectionWorker) doRead(c Characteristic) ([]byte, error) {
	if !c.Known() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, c)
	}
	if !w.connected.Load() {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opTimeout)
	defer cancel()

	data, err := w.link.Read(ctx, c)
	if err != nil {
		w.logger.Error("read failed", "characteristic", c.Name(), "error", err)
		return nil, fmt.Errorf("%w: read %s: %w", ErrLinkFailure, c.Name(), err)
	}
	return data, nil
}

func (w *ConnectionWorker) doWrite(c Characteristic, data []byte) error {
	if !c.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownCharacteristic, c)
	}
	if !c.Writable() {
		return fmt.Errorf("%w: characteristic %s is read-only", ErrUnsupportedOperation, c.Name())
	}
	if !w.connected.Load() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opTimeout)
	defer cancel()

	if err := w.link.Write(ctx, c, data); err != nil {
		w.logger.Error("write failed", "characteristic", c.Name(), "error", err)
		return fmt.Errorf("%w: write %s: %w", ErrLinkFailure, c.Name(), err)
	}
	return nil
}

// startPoll launches the poll goroutine. The goroutine issues its reads
// back through the command queue so the link still only ever sees the
// worker goroutine; its result waits select on cancel so shutdown never
// deadlocks.
func (w *ConnectionWorker) startPoll(c Characteristic, interval time.Duration, stream chan PollResult) *pollTask {
	task := &pollTask{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		defer close(stream)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		w.logger.Info("poll started", "characteristic", c.Name(), "interval", interval)

		for {
			sample, ok := w.pollOnce(c, task.cancel)
			if !ok {
				w.logger.Info("poll stopped", "characteristic", c.Name())
				return
			}
			select {
			case stream <- sample:
				w.pollSamples.Add(1)
			case <-task.cancel:
				w.logger.Info("poll stopped", "characteristic", c.Name())
				return
			}

			select {
			case <-ticker.C:
			case <-task.cancel:
				w.logger.Info("poll stopped", "characteristic", c.Name())
				return
			}
		}
	}()

	return task
}

// pollOnce takes one sample via the command queue. Returns ok=false when
// the poll was cancelled before the sample completed.
func (w *ConnectionWorker) pollOnce(c Characteristic, cancel chan struct{}) (PollResult, bool) {
	cmd := command{kind: cmdRead, char: c, result: make(chan Result, 1)}

	select {
	case w.cmds <- cmd:
	case <-cancel:
		return PollResult{}, false
	case <-w.stopping:
		return PollResult{}, false
	}

	var res Result
	select {
	case res = <-cmd.result:
	case <-cancel:
		return PollResult{}, false
	}

	sample := PollResult{
		Characteristic: c,
		Data:           res.Data,
		Err:            res.Err,
		Timestamp:      time.Now(),
	}
	if res.Err == nil {
		value, err := DecodeValue(c, res.Data)
		if err != nil {
			sample.Err = err
		} else {
			sample.Value = value
		}
	}
	return sample, true
}

// cancelPoll stops the active poll and waits for its acknowledgement.
func (w *ConnectionWorker) cancelPoll(poll *pollTask) *pollTask {
	if poll == nil {
		return nil
	}
	close(poll.cancel)
	<-poll.done
	return nil
}

// shutdown cancels the poll, fails the queued commands and drops the
// link. Runs in the worker goroutine as its final act.
func (w *ConnectionWorker) shutdown(poll *pollTask) {
	w.cancelPoll(poll)

	for {
		select {
		case cmd := <-w.cmds:
			cmd.result <- Result{Err: ErrWorkerStopped}
		default:
			if w.connected.Load() {
				ctx, cancel := context.WithTimeout(context.Background(), w.opTimeout)
				if err := w.link.Disconnect(ctx); err != nil {
					w.logger.Error("disconnect on shutdown failed", "error", err)
				}
				cancel()
				w.connected.Store(false)
			}
			w.logger.Info("connection worker stopped")
			return
		}
	}
}
