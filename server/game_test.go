package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

func testLevels() *LevelCatalog {
	return &LevelCatalog{Levels: []LevelDescriptor{
		{
			ID: "alpha", Name: "Alpha", TimeLimit: 60,
			DeliveryPoint: &Vec3Spec{40, 0, 0},
			StartingFuel:  100, FuelRegenRate: 1, MaxSpeed: 18,
			UnlockMessage: "alpha done",
		},
		{
			ID: "beta", Name: "Beta", TimeLimit: 60,
			AsteroidCount: 3, AsteroidSize: SizeRange{1, 1},
			StartingFuel: 80, FuelRegenRate: 1, MaxSpeed: 18,
		},
	}}
}

func newTestGame(levels *LevelCatalog) *Game {
	cfg := DefaultSimConfig()
	cfg.Seed = 42
	cfg.Director = quietConfig()
	return NewGame(cfg, levels)
}

// parkStations moves every delivery point far from the craft
func parkStations(g *Game) {
	for i, dp := range g.director.deliveryPoints {
		dp.Position = mgl64.Vec3{200 + 50*float64(i), 0, 0}
	}
}

func placeCraft(g *Game, p mgl64.Vec3) {
	b := g.world.Body(g.craft.Body)
	b.Position = p
	b.Velocity = mgl64.Vec3{}
}

type fakeViewer struct {
	json   []interface{}
	frames [][]byte
}

func (v *fakeViewer) SendJSON(msg interface{}) { v.json = append(v.json, msg) }
func (v *fakeViewer) SendBinary(data []byte)   { v.frames = append(v.frames, data) }

func TestPhaseTransitions(t *testing.T) {
	g := newTestGame(testLevels())
	if g.Phase() != PhaseMenu {
		t.Fatalf("new game phase = %s, want menu", g.Phase())
	}
	g.Step(0.1)
	if g.State().Elapsed != 0 {
		t.Error("menu should not advance time")
	}

	if !g.Start() {
		t.Fatal("Start from menu should succeed")
	}
	parkStations(g)
	if g.Start() {
		t.Error("Start while playing should be refused")
	}
	if g.Resume() {
		t.Error("Resume while playing should be refused")
	}

	if !g.Pause() || g.Phase() != PhasePaused {
		t.Fatal("Pause should move to paused")
	}
	g.Step(0.1)
	if g.State().Elapsed != 0 {
		t.Error("paused game should not advance time")
	}
	if !g.Resume() || g.Phase() != PhasePlaying {
		t.Fatal("Resume should move back to playing")
	}
	g.Step(0.05)
	if math.Abs(g.State().Elapsed-0.05) > 1e-9 {
		t.Errorf("elapsed = %f, want 0.05", g.State().Elapsed)
	}

	g.stats.Score = 999
	g.level = 4
	g.Reset()
	st := g.State()
	if st.Phase != "menu" || st.Score != 0 || st.Level != 1 || st.Lives != StartingLives {
		t.Errorf("after Reset: %+v", st)
	}
}

func TestDeliveryScenarioWinsLevel(t *testing.T) {
	g := newTestGame(testLevels())
	var results []LevelResult
	g.OnLevelComplete(func(r LevelResult) { results = append(results, r) })
	g.Start()

	objs := g.ObjectivesStatus()
	if len(objs) != 2 || !objs[0].Primary || objs[0].Progress != "0/3" {
		t.Fatalf("level 1 objectives = %+v", objs)
	}

	parkStations(g)
	for i := 0; i < 3; i++ {
		placeCraft(g, g.director.deliveryPoints[i].Position)
		g.Step(dt60)
	}

	st := g.State()
	if st.Phase != "victory" {
		t.Fatalf("phase = %s, want victory", st.Phase)
	}
	if st.Level != 2 {
		t.Errorf("level = %d, want exactly 2", st.Level)
	}
	// 3 deliveries, primary objective, unbroken no-damage bonus, level bonus
	want := 3*100 + 500 + 200 + 1000*2 + 300*2
	if st.Score != want {
		t.Errorf("score = %d, want %d", st.Score, want)
	}
	if len(results) != 1 {
		t.Fatalf("level-complete hook called %d times", len(results))
	}
	r := results[0]
	if r.Level != 1 || r.LevelID != "alpha" || r.NextLevelID != "beta" || r.UnlockMessage != "alpha done" {
		t.Errorf("level result = %+v", r)
	}

	g.Step(dt60)
	if g.State().Level != 2 {
		t.Error("victory must not advance the level again")
	}

	if !g.NextLevel() {
		t.Fatal("NextLevel after victory should succeed")
	}
	st = g.State()
	if st.Phase != "playing" || st.Level != 2 || st.LevelID != "beta" {
		t.Errorf("after NextLevel: phase=%s level=%d id=%s", st.Phase, st.Level, st.LevelID)
	}
	if st.Craft.Fuel != 80 {
		t.Errorf("fuel = %f, want the level's 80", st.Craft.Fuel)
	}
	if n := g.world.BodyCount(); n != 4 {
		t.Errorf("world holds %d bodies, want craft plus 3 asteroids", n)
	}
}

func TestTimeLimitEndsRun(t *testing.T) {
	levels := testLevels()
	levels.Levels[0].TimeLimit = 1
	g := newTestGame(levels)
	var events []FlightEvent
	g.OnEvent(func(e FlightEvent) { events = append(events, e) })
	g.Start()
	parkStations(g)

	for i := 0; i < 10; i++ {
		g.Step(0.1)
	}
	if g.Phase() != PhasePlaying {
		t.Fatalf("phase = %s before the limit", g.Phase())
	}
	g.Step(0.1)
	if g.Phase() != PhaseGameOver {
		t.Fatalf("phase = %s, want gameOver after the time limit", g.Phase())
	}
	last := events[len(events)-1]
	if last.Kind != EvtGameOver || last.Detail != "time" {
		t.Errorf("last event = %+v", last)
	}
}

func TestLosingLastLifeEndsRun(t *testing.T) {
	g := newTestGame(testLevels())
	g.Start()
	parkStations(g)
	g.stats.Lives = 1
	g.director.projectiles = append(g.director.projectiles, &Projectile{
		Position: g.craft.Position(),
		Life:     ProjectileLifetime,
		Damage:   10,
		Alive:    true,
	})

	g.Step(dt60)

	st := g.State()
	if st.Phase != "gameOver" || st.Lives != 0 {
		t.Fatalf("phase=%s lives=%d, want gameOver with 0 lives", st.Phase, st.Lives)
	}
	if g.NextLevel() {
		t.Error("NextLevel from gameOver should be refused")
	}
	if g.Start() {
		t.Error("Start from gameOver should be refused")
	}
	g.Reset()
	if !g.Start() {
		t.Error("Start after Reset should succeed")
	}
}

func TestNextLevelSkipsFromPlaying(t *testing.T) {
	g := newTestGame(testLevels())
	g.Start()
	if !g.NextLevel() {
		t.Fatal("NextLevel while playing should succeed")
	}
	st := g.State()
	if st.Level != 2 || st.LevelID != "beta" {
		t.Errorf("level=%d id=%s, want 2/beta", st.Level, st.LevelID)
	}
}

func TestStopDeregistersEverything(t *testing.T) {
	levels := testLevels()
	levels.Levels[0].AsteroidCount = 5
	levels.Levels[0].AsteroidSize = SizeRange{1, 2}
	g := newTestGame(levels)
	g.Start()
	g.mods.Add(ModSpeed, 1.5, 0, 10)
	if g.world.BodyCount() != 6 {
		t.Fatalf("body count = %d, want 6", g.world.BodyCount())
	}

	g.Stop()

	if g.world.BodyCount() != 0 {
		t.Errorf("body count after Stop = %d", g.world.BodyCount())
	}
	if g.mods.Len() != 0 {
		t.Error("Stop should discard modifiers")
	}
	if g.Phase() != PhaseMenu {
		t.Errorf("phase after Stop = %s", g.Phase())
	}
	if len(g.Frame().Asteroids) != 0 {
		t.Error("no asteroids should be reported after Stop")
	}
	g.SetThruster(ThrustForward, true)
	g.Step(dt60)

	if !g.Start() || g.world.BodyCount() != 6 {
		t.Errorf("restart should rebuild the level, body count = %d", g.world.BodyCount())
	}
}

func TestPauseClearsModifiers(t *testing.T) {
	g := newTestGame(testLevels())
	g.Start()
	g.mods.Add(ModSpeed, 1.5, 0, 10)
	g.Pause()
	if g.mods.Len() != 0 {
		t.Error("Pause should discard modifiers")
	}
}

func TestStepClampsLargeDelta(t *testing.T) {
	g := newTestGame(testLevels())
	g.Start()
	parkStations(g)
	g.Step(5)
	if math.Abs(g.State().Elapsed-MaxStep) > 1e-9 {
		t.Errorf("elapsed = %f, want clamped %f", g.State().Elapsed, MaxStep)
	}
	g.Step(math.NaN())
	g.Step(-1)
	if math.Abs(g.State().Elapsed-MaxStep) > 1e-9 {
		t.Error("invalid deltas should be ignored")
	}
}

func TestThrusterCommandMovesCraft(t *testing.T) {
	g := newTestGame(testLevels())
	g.Start()
	parkStations(g)
	g.SetThruster(ThrustForward, true)
	for i := 0; i < 30; i++ {
		g.Step(dt60)
	}
	st := g.State()
	if st.Craft.Pos[2] >= 0 {
		t.Errorf("forward thrust should move along -Z, pos=%v", st.Craft.Pos)
	}
	if st.Craft.Fuel >= 100 {
		t.Error("thrusting should burn fuel")
	}
	if st.Craft.Thrust != 1<<uint(ThrustForward) {
		t.Errorf("thrust mask = %b", st.Craft.Thrust)
	}
}

func TestSolarWindPushesCraft(t *testing.T) {
	levels := testLevels()
	levels.Levels[0].Environment.SolarWind = &SolarWind{Direction: Vec3Spec{1, 0, 0}, Strength: 6}
	g := newTestGame(levels)
	g.Start()
	parkStations(g)
	for i := 0; i < 10; i++ {
		g.Step(dt60)
	}
	if v := g.craft.Velocity(); v[0] <= 0 {
		t.Errorf("solar wind along +X should push the craft, vel=%v", v)
	}
}

func TestInterferenceSpinsCraft(t *testing.T) {
	levels := testLevels()
	levels.Levels[0].Environment.NavigationInterference = 1
	g := newTestGame(levels)
	g.Start()
	parkStations(g)
	g.Step(dt60)

	w := g.world.Body(g.craft.Body).AngularVelocity
	if w.Len() == 0 {
		t.Fatal("interference should spin the craft")
	}
	limit := interferenceJolt*dt60 + 1e-9
	for i := 0; i < 3; i++ {
		if math.Abs(w[i]) > limit {
			t.Errorf("axis %d spin %f exceeds one tick of jolt %f", i, w[i], limit)
		}
	}
}

func TestGravityWellPullsCraft(t *testing.T) {
	levels := testLevels()
	levels.Levels[0].Environment.GravityWells = []GravityWell{
		{Position: Vec3Spec{0, -20, 0}, Mass: 50, Radius: 2},
	}
	g := newTestGame(levels)
	g.Start()
	parkStations(g)
	if len(g.world.GravitySources()) != 1 {
		t.Fatal("level well should be registered")
	}
	for i := 0; i < 10; i++ {
		g.Step(dt60)
	}
	if v := g.craft.Velocity(); v[1] >= 0 {
		t.Errorf("well below the craft should pull it down, vel=%v", v)
	}
}

func TestBroadcastSendsFramesAndEvents(t *testing.T) {
	g := newTestGame(testLevels())
	v := &fakeViewer{}
	g.AddViewer("v1", v)
	g.Start()
	parkStations(g)
	placeCraft(g, g.director.deliveryPoints[0].Position)

	for i := 0; i < BroadcastEvery; i++ {
		g.update(dt60)
	}

	if len(v.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(v.frames))
	}
	var gs GameState
	if err := msgpack.Unmarshal(v.frames[0], &gs); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if gs.Status.Phase != "playing" || gs.Status.Level != 1 {
		t.Errorf("frame status = %+v", gs.Status)
	}
	if len(gs.Deliveries) != 4 || !gs.Deliveries[0].Delivered {
		t.Errorf("frame deliveries = %+v", gs.Deliveries)
	}

	var delivered bool
	for _, m := range v.json {
		env, ok := m.(Envelope)
		if !ok || env.T != MsgEvent {
			continue
		}
		if ev := env.Data.(FlightEvent); ev.Kind == EvtDelivery {
			delivered = true
		}
	}
	if !delivered {
		t.Error("viewer should receive the delivery event")
	}

	g.RemoveViewer("v1")
	if g.ViewerCount() != 0 {
		t.Error("viewer should be removed")
	}
}

func TestDifficultyScalesDirector(t *testing.T) {
	easy := DefaultSimConfig().WithDifficulty(DifficultyEasy)
	hard := DefaultSimConfig().WithDifficulty(DifficultyHard)
	normal := DefaultSimConfig().WithDifficulty(DifficultyNormal)

	if easy.Director.DamageScale >= normal.Director.DamageScale || hard.Director.DamageScale <= normal.Director.DamageScale {
		t.Errorf("damage scale easy=%v normal=%v hard=%v", easy.Director.DamageScale, normal.Director.DamageScale, hard.Director.DamageScale)
	}
	if easy.Director.EnemySpawnRate >= hard.Director.EnemySpawnRate {
		t.Error("hard should spawn enemies faster than easy")
	}
}

func TestSurvivalLevelsEndBeforeTimeLimit(t *testing.T) {
	for _, level := range []int{2, 6, 10} {
		g := newTestGame(DefaultLevels())
		g.level = level
		g.Start()
		parkStations(g)
		g.stats.Lives = 1 << 20

		primary := g.director.objectives[0]
		if primary.Type != ObjSurvival {
			t.Fatalf("level %d primary = %s, want survival", level, primary.Type)
		}
		if primary.Target >= g.desc.TimeLimit {
			t.Errorf("level %d (%s): survival target %.0f not below limit %.0f",
				level, g.desc.ID, primary.Target, g.desc.TimeLimit)
		}

		steps := int((g.desc.TimeLimit + 5) * 60)
		for i := 0; i < steps && g.Phase() == PhasePlaying; i++ {
			g.Step(dt60)
		}
		if g.Phase() != PhaseVictory {
			st := g.State()
			t.Errorf("level %d (%s): ended %s at %.1fs", level, g.desc.ID, st.Phase, st.Elapsed)
		}
	}
}
