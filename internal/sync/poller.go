// Package sync polls the shared document in the background so changes
// made by other clients reach the open inbox.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/model"
)

// State is what the poller is doing right now.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status is the outcome of the latest poll.
type Status struct {
	State    State
	LastPoll time.Time
	Error    error
}

// ResultMsg is a tea.Msg sent after every poll. NewCount counts unread
// notifications that were not present in any earlier poll.
type ResultMsg struct {
	Notifications []model.Notification
	NewCount      int
	Err           error
}

// Source lists the signed-in user's notifications from the latest
// document.
type Source interface {
	Notifications(ctx context.Context) ([]model.Notification, error)
}

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 30 * time.Second

// fetchTimeout bounds a single poll.
const fetchTimeout = 30 * time.Second

// Poller reloads notifications on a fixed interval or on demand.
type Poller struct {
	src      Source
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	resultCh  chan ResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	stopped bool
	primed  bool
	seen    map[int]bool
	status  Status
}

// New creates a Poller. It does nothing until Start.
func New(src Source, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		src:       src,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		resultCh:  make(chan ResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		seen:      make(map[int]bool),
	}
}

// Start launches the polling goroutine, which polls immediately and
// then on every tick. The returned command delivers the first result;
// call WaitForNextResult after handling each ResultMsg. A stopped
// Poller cannot be restarted.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return func() tea.Msg { return nil }
	}
	if p.running {
		p.mu.Unlock()
		return p.WaitForNextResult()
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
	return p.WaitForNextResult()
}

// Stop halts the polling goroutine, which then releases any pending
// WaitForNextResult with a nil message. It is safe to call more than
// once.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	p.stopped = true
}

// Refresh asks for an immediate poll. A pending request is not
// duplicated.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the latest poll.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// WaitForNextResult returns a command that blocks until the next poll
// result, or returns nil once the Poller has stopped.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

func (p *Poller) loop() {
	defer close(p.resultCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

// poll fetches once, tracks which notifications are new and sends the
// result without blocking.
func (p *Poller) poll() {
	p.setStatus(StateRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	ns, err := p.src.Notifications(ctx)
	if err != nil {
		p.logger.Warn("notification poll failed", zap.Error(err))
		p.setStatus(StateError, err)
		p.send(ResultMsg{Err: err})
		return
	}

	p.mu.Lock()
	newCount := 0
	for _, n := range ns {
		if !p.seen[n.ID] && p.primed && !n.Read {
			newCount++
		}
		p.seen[n.ID] = true
	}
	p.primed = true
	p.mu.Unlock()

	if newCount > 0 {
		p.logger.Debug("new notifications", zap.Int("count", newCount))
	}
	p.setStatus(StateIdle, nil)
	p.send(ResultMsg{Notifications: ns, NewCount: newCount})
}

func (p *Poller) setStatus(state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == StateIdle {
		p.status.LastPoll = p.now()
	}
}

func (p *Poller) send(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		p.logger.Debug("dropping poll result, inbox is behind")
	}
}
