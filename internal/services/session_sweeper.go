package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IdleEvictor unloads idle editing sessions
type IdleEvictor interface {
	EvictIdle(idle time.Duration) int
	SessionIDs() []string
}

// SessionSweeper periodically unloads idle editing sessions and keeps the
// event streams of the remaining ones alive
type SessionSweeper struct {
	editor      IdleEvictor
	hub         *SSEHub
	idleTimeout time.Duration
	interval    time.Duration
	stopChan    chan bool
}

func NewSessionSweeper(editor IdleEvictor, hub *SSEHub, idleTimeout time.Duration) *SessionSweeper {
	return &SessionSweeper{
		editor:      editor,
		hub:         hub,
		idleTimeout: idleTimeout,
		interval:    1 * time.Minute,
		stopChan:    make(chan bool),
	}
}

// Start starts the sweeper
func (s *SessionSweeper) Start() {
	go s.run()
	logrus.Info("Session sweeper started")
}

// Stop stops the sweeper
func (s *SessionSweeper) Stop() {
	s.stopChan <- true
	logrus.Info("Session sweeper stopped")
}

func (s *SessionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

// sweep evicts idle sessions and sends a heartbeat to the rest
func (s *SessionSweeper) sweep() int {
	evicted := s.editor.EvictIdle(s.idleTimeout)
	if evicted > 0 {
		logrus.Infof("Session sweep completed: unloaded %d idle session(s)", evicted)
	} else {
		logrus.Debug("Session sweep completed: no idle sessions")
	}

	if s.hub != nil {
		for _, id := range s.editor.SessionIDs() {
			s.hub.SendHeartbeat(id)
		}
	}
	return evicted
}

// SetInterval sets the sweep interval
func (s *SessionSweeper) SetInterval(interval time.Duration) {
	if interval > 0 {
		s.interval = interval
	}
}
