package viz

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

// TickMsg carries one steered sample and the session state after it.
type TickMsg struct {
	Sample   session.Sample
	Tick     session.Tick
	Snapshot session.Snapshot
}

type WindowMsg session.Window

// DoneMsg is sent once the driver stops. Err is nil on a clean finish.
type DoneMsg struct {
	Err error
}

// Feed is a session observer that forwards events to the dashboard. Ticks
// are dropped while the dashboard lags behind; windows and the final DoneMsg
// are delivered until the dashboard stops listening.
type Feed struct {
	sess *session.Session
	ch   chan tea.Msg

	stopped  chan struct{}
	stopOnce sync.Once
}

// NewFeed observes sess. Snapshots are taken from inside the observer
// callbacks, which run on the session's goroutine.
func NewFeed(sess *session.Session, buffer int) *Feed {
	f := &Feed{
		sess:    sess,
		ch:      make(chan tea.Msg, buffer),
		stopped: make(chan struct{}),
	}
	sess.AddObserver(f)
	return f
}

func (f *Feed) OnTick(s session.Sample, t session.Tick) {
	msg := TickMsg{Sample: s, Tick: t, Snapshot: f.sess.Snapshot()}
	select {
	case f.ch <- msg:
	default:
	}
}

func (f *Feed) OnWindow(w session.Window) {
	f.send(WindowMsg(w))
}

// Close tells the dashboard the driver has stopped.
func (f *Feed) Close(err error) {
	f.send(DoneMsg{Err: err})
}

// Stop releases the driver once nobody reads the feed any more.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stopped) })
}

func (f *Feed) send(msg tea.Msg) {
	select {
	case f.ch <- msg:
	case <-f.stopped:
	}
}

// Wait returns a command that blocks for the next event.
func (f *Feed) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.ch:
			return msg
		case <-f.stopped:
			return nil
		}
	}
}
