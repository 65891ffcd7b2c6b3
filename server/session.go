package main

import (
	"log"
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session with no viewers survives
var SessionIdleTimeout = 30 * time.Second

// SessionDeps are the shared services every session reports to. Any of them
// may be nil.
type SessionDeps struct {
	Store  Store
	DB     *DB
	Log    *FlightLog
	Levels *LevelCatalog
	Sim    SimConfig
}

// Session is one pilot's flight, hosted for its viewers and controllers
type Session struct {
	ID      string
	Name    string
	PilotID int64 // 0 for guests
	Game    *Game
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     SessionDeps

	progressMu sync.Mutex // serializes progress read-modify-write
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(deps SessionDeps) *SessionManager {
	if deps.Levels == nil {
		deps.Levels = DefaultLevels()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		deps:     deps,
	}
}

// CreateSession starts a simulation for a pilot. Returns nil if the session
// limit is reached.
func (sm *SessionManager) CreateSession(name string, pilotID int64, class ShipClass) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}
	if pilotID > 0 && sm.deps.DB != nil {
		if err := sm.deps.DB.SetPilotClass(pilotID, class); err != nil {
			log.Printf("session: remember class: %v", err)
		}
	}

	cfg := sm.deps.Sim
	cfg.Class = class
	cfg = cfg.WithDifficulty(LoadSettings(sm.deps.Store, pilotID).Gameplay.Difficulty)

	sess := &Session{
		ID:      GenerateUUID(),
		Name:    name,
		PilotID: pilotID,
		Game:    NewGame(cfg, sm.deps.Levels),
	}
	sess.Game.OnEvent(func(ev FlightEvent) { sm.onEvent(sess, ev) })
	sess.Game.OnLevelComplete(func(r LevelResult) { go sm.recordLevel(sess.PilotID, r) })

	sm.sessions[sess.ID] = sess
	go sess.Game.Run()
	sm.scheduleIdle(sess)
	log.Printf("session %s created for %q", sess.ID, name)
	return sess
}

// onEvent runs on the game loop with the game locked, so nothing here may
// block
func (sm *SessionManager) onEvent(sess *Session, ev FlightEvent) {
	if sm.deps.Log != nil {
		sm.deps.Log.Track(ev, sess.PilotID, sess.ID)
	}
	if ev.Kind == EvtGameOver && sm.deps.DB != nil {
		run := RunRow{
			PilotID: sess.PilotID,
			LevelID: sm.deps.Levels.ForLevel(ev.Level).ID,
			Level:   ev.Level,
			Score:   ev.Score,
			Elapsed: ev.At,
			Outcome: PhaseGameOver.String(),
		}
		go sm.recordRun(run)
	}
}

// recordLevel stores a won level in the pilot's progress and run history
func (sm *SessionManager) recordLevel(pilotID int64, r LevelResult) {
	if sm.deps.Store != nil {
		sm.progressMu.Lock()
		p := LoadProgress(sm.deps.Store, pilotID, sm.deps.Levels)
		p.CompleteLevel(sm.deps.Levels, r.LevelID, r.Score)
		if err := SaveProgress(sm.deps.Store, pilotID, p); err != nil {
			log.Printf("session: save progress: %v", err)
		}
		sm.progressMu.Unlock()
	}
	if sm.deps.DB != nil {
		sm.recordRun(RunRow{
			PilotID: pilotID,
			LevelID: r.LevelID,
			Level:   r.Level,
			Score:   r.Score,
			Elapsed: r.Elapsed,
			Outcome: PhaseVictory.String(),
		})
	}
}

func (sm *SessionManager) recordRun(r RunRow) {
	if err := sm.deps.DB.RecordRun(r); err != nil {
		log.Printf("session: record run: %v", err)
	}
}

// scheduleIdle closes sess after the idle timeout unless someone is watching
func (sm *SessionManager) scheduleIdle(sess *Session) {
	time.AfterFunc(SessionIdleTimeout, func() {
		if sess.Game.ViewerCount() == 0 {
			sm.RemoveSession(sess.ID)
		}
	})
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// AddViewer subscribes a client to a session. Returns nil if the session
// does not exist.
func (sm *SessionManager) AddViewer(sessionID, clientID string, b Broadcaster) *Session {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return nil
	}
	sess.Game.AddViewer(clientID, b)
	return sess
}

// RemoveViewer unsubscribes a client; an unwatched session is closed once
// it has been idle for SessionIdleTimeout
func (sm *SessionManager) RemoveViewer(sessionID, clientID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemoveViewer(clientID)
	if sess.Game.ViewerCount() == 0 {
		sm.scheduleIdle(sess)
	}
}

// RemoveSession stops a session's game loop and forgets it
func (sm *SessionManager) RemoveSession(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	sess.Game.Shutdown()
	log.Printf("session %s closed", id)
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CloseAll stops every session
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	all := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()
	for _, sess := range all {
		sess.Game.Stop()
		sess.Game.Shutdown()
	}
}
