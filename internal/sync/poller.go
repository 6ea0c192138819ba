package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/remote"
)

// SyncState represents the current state of the leaderboard sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of the last sync.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Profile     *model.Profile
	Rank        int
	Leaderboard []model.LeaderboardEntry
	Pushed      int
	Error       error

	// NotSignedIn is set when there is no profile to sync to.
	NotSignedIn bool
}

// Progress is the local quest state that gets pushed.
type Progress interface {
	TotalPoints() int
	CalculateStreak() int
}

// Ledger remembers the point total last pushed.
type Ledger interface {
	LoadSyncedPoints(ctx context.Context) int
	SaveSyncedPoints(ctx context.Context, n int) bool
}

// syncTimeout is the maximum time allowed for a single sync.
const syncTimeout = 30 * time.Second

// Poller pushes local points and streak to the profile database and
// pulls the friends leaderboard in the background.
type Poller struct {
	remote   remote.Collaborator
	progress Progress
	ledger   Ledger
	interval time.Duration
	logger   *log.Logger

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller. A non-positive interval defaults to two minutes.
func New(c remote.Collaborator, progress Progress, ledger Ledger, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = 120 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		remote:    c,
		progress:  progress,
		ledger:    ledger,
		interval:  interval,
		logger:    logger,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and waits
// for its first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate sync.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A sync is already queued.
	}
	return nil
}

// Status returns the state of the last sync.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.run()
		case <-p.triggerCh:
			p.run()
		}
	}
}

func (p *Poller) run() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	p.sendResult(p.SyncNow(ctx))
}

// SyncNow pushes the unsynced point delta and the current streak, then
// reads back the profile, rank and leaderboard.
func (p *Poller) SyncNow(ctx context.Context) SyncResultMsg {
	p.setStatus(SyncRunning, nil)

	total := p.progress.TotalPoints()
	delta := total - p.ledger.LoadSyncedPoints(ctx)

	if err := p.remote.UpdatePoints(ctx, delta); err != nil {
		return p.fail(err)
	}
	p.ledger.SaveSyncedPoints(ctx, total)

	if err := p.remote.UpdateStreak(ctx, p.progress.CalculateStreak()); err != nil {
		return p.fail(err)
	}

	profile, err := p.remote.GetProfile(ctx)
	if err != nil {
		return p.fail(err)
	}
	rank, err := p.remote.GetRankAmongFriends(ctx)
	if err != nil {
		return p.fail(err)
	}
	board, err := p.remote.Leaderboard(ctx)
	if err != nil {
		return p.fail(err)
	}

	if delta != 0 {
		p.logger.Info("synced points", "delta", delta, "total", profile.TotalPoints)
	}
	p.setStatus(SyncIdle, nil)
	return SyncResultMsg{
		Profile:     profile,
		Rank:        rank,
		Leaderboard: board,
		Pushed:      delta,
	}
}

func (p *Poller) fail(err error) SyncResultMsg {
	if errors.Is(err, remote.ErrNotSignedIn) {
		p.setStatus(SyncIdle, nil)
		return SyncResultMsg{NotSignedIn: true}
	}
	if remote.IsSuppressed(err) {
		p.logger.Debug("sync skipped", "err", err)
		p.setStatus(SyncIdle, nil)
		return SyncResultMsg{}
	}
	p.logger.Error("syncing leaderboard", "err", err)
	p.setStatus(SyncError, err)
	return SyncResultMsg{Error: err}
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
