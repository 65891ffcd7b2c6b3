package main

import (
	"testing"
	"time"
)

func newTestSessions(t *testing.T) (*SessionManager, *DB) {
	t.Helper()
	db := openTestDB(t)
	sm := NewSessionManager(SessionDeps{
		Store:  NewSQLiteStore(db),
		DB:     db,
		Levels: testLevels(),
		Sim:    DefaultSimConfig(),
	})
	t.Cleanup(sm.CloseAll)
	return sm, db
}

func TestCreateAndRemoveSession(t *testing.T) {
	sm, _ := newTestSessions(t)
	sess := sm.CreateSession("Vega", 0, ClassHauler)
	if sess == nil {
		t.Fatal("CreateSession returned nil")
	}
	if sm.GetSession(sess.ID) != sess || sm.Count() != 1 {
		t.Error("session should be registered")
	}
	if sess.Game.State().Craft.Class != int(ClassHauler) {
		t.Errorf("craft class = %d", sess.Game.State().Craft.Class)
	}

	v := &fakeViewer{}
	if sm.AddViewer(sess.ID, "c1", v) == nil || sess.Game.ViewerCount() != 1 {
		t.Error("viewer should join")
	}
	if sm.AddViewer("missing", "c1", v) != nil {
		t.Error("unknown session should not accept viewers")
	}
	sm.RemoveViewer(sess.ID, "c1")
	if sess.Game.ViewerCount() != 0 {
		t.Error("viewer should leave")
	}

	sm.RemoveSession(sess.ID)
	if sm.GetSession(sess.ID) != nil || sm.Count() != 0 {
		t.Error("session should be gone")
	}
	sm.RemoveSession(sess.ID)
}

func TestSessionUsesStoredDifficulty(t *testing.T) {
	sm, _ := newTestSessions(t)
	s := DefaultSettings()
	s.Gameplay.Difficulty = DifficultyHard
	if _, err := SaveSettings(sm.deps.Store, 7, s); err != nil {
		t.Fatal(err)
	}
	sess := sm.CreateSession("Vega", 7, ClassShuttle)
	if got := sess.Game.cfg.Director.DamageScale; got != 1.5 {
		t.Errorf("damage scale = %v, want hard difficulty", got)
	}
	guest := sm.CreateSession("Rigel", 0, ClassShuttle)
	if got := guest.Game.cfg.Director.DamageScale; got != 1 {
		t.Errorf("guest damage scale = %v, want normal difficulty", got)
	}
}

func TestIdleSessionIsClosed(t *testing.T) {
	old := SessionIdleTimeout
	SessionIdleTimeout = 20 * time.Millisecond
	defer func() { SessionIdleTimeout = old }()

	sm, _ := newTestSessions(t)
	idle := sm.CreateSession("idle", 0, ClassShuttle)
	watched := sm.CreateSession("watched", 0, ClassShuttle)
	sm.AddViewer(watched.ID, "c1", &fakeViewer{})

	deadline := time.Now().Add(2 * time.Second)
	for sm.GetSession(idle.ID) != nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sm.GetSession(idle.ID) != nil {
		t.Error("unwatched session should close after the idle timeout")
	}
	if sm.GetSession(watched.ID) == nil {
		t.Error("watched session should stay open")
	}
}

func TestRecordLevelSavesProgressAndRun(t *testing.T) {
	sm, db := newTestSessions(t)
	pid, err := db.CreatePilot("ace", "")
	if err != nil {
		t.Fatal(err)
	}

	sm.recordLevel(pid, LevelResult{Level: 1, LevelID: "alpha", NextLevelID: "beta", Score: 1500, Elapsed: 42})

	p := LoadProgress(sm.deps.Store, pid, sm.deps.Levels)
	if !p.IsUnlocked("beta") || p.HighScores["alpha"] != 1500 || p.CurrentLevel != "beta" {
		t.Errorf("progress = %+v", p)
	}
	board, err := db.GetLeaderboard("alpha", 5)
	if err != nil || len(board) != 1 || board[0].Username != "ace" || board[0].Score != 1500 {
		t.Errorf("leaderboard = %+v, %v", board, err)
	}
}

func TestSessionLimit(t *testing.T) {
	sm, _ := newTestSessions(t)
	for i := 0; i < maxSessions; i++ {
		if sm.CreateSession("p", 0, ClassShuttle) == nil {
			t.Fatalf("session %d refused early", i)
		}
	}
	if sm.CreateSession("one too many", 0, ClassShuttle) != nil {
		t.Error("session past the limit should be refused")
	}
}

func TestRemoveSessionTearsDownLevel(t *testing.T) {
	sm, _ := newTestSessions(t)
	sess := sm.CreateSession("Vega", 0, ClassShuttle)
	if !sess.Game.Start() {
		t.Fatal("Start failed")
	}
	sess.Game.mu.Lock()
	sess.Game.mods.Add(ModSpeed, 1.5, 0, 10)
	sess.Game.mu.Unlock()

	sm.RemoveSession(sess.ID)

	g := sess.Game
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.world.BodyCount(); n != 0 {
		t.Errorf("body count after close = %d", n)
	}
	if g.mods.Len() != 0 {
		t.Error("modifiers should be discarded on close")
	}
	if g.phase != PhaseMenu {
		t.Errorf("phase after close = %s", g.phase)
	}
}

func TestCreateSessionRemembersPilotClass(t *testing.T) {
	sm, db := newTestSessions(t)
	id, err := db.CreatePilot("lyra", "x")
	if err != nil {
		t.Fatal(err)
	}
	sm.CreateSession("lyra", id, ClassGhost)
	p, err := db.GetPilot(id)
	if err != nil || p == nil {
		t.Fatalf("GetPilot = %v, %v", p, err)
	}
	if p.ShipClass != ClassGhost {
		t.Errorf("remembered class = %d, want ghost", p.ShipClass)
	}
}
