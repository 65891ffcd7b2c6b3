package main

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

const interferenceJolt = 0.5 // rad/s² of random spin at full interference

// Broadcaster receives a session's messages and state frames
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// LevelResult describes a finished level
type LevelResult struct {
	Level         int // level counter that was flown
	LevelID       string
	NextLevelID   string
	Score         int
	Elapsed       float64
	UnlockMessage string
}

// Game runs one pilot's simulation: the phase machine on top of the physics
// world, the craft and the entity director. All exported methods are safe
// for concurrent use.
type Game struct {
	mu        sync.Mutex
	cfg       SimConfig
	levels    *LevelCatalog
	rng       *rand.Rand
	world     *PhysicsWorld
	craft     *Spacecraft
	director  *EntityDirector
	mods      ModifierList
	phase     GamePhase
	stats     RunStats
	level     int
	elapsed   float64
	desc      LevelDescriptor
	asteroids []*Asteroid
	tick      uint64

	viewers         map[string]Broadcaster
	onEvent         EventSink
	onLevelComplete func(LevelResult)

	stopped bool
	stop    chan struct{}
}

// NewGame creates a game in the menu phase at level 1. A nil catalogue uses
// the built-in levels.
func NewGame(cfg SimConfig, levels *LevelCatalog) *Game {
	if levels == nil || len(levels.Levels) == 0 {
		levels = DefaultLevels()
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = MaxStep
	}
	if cfg.StartingLives <= 0 {
		cfg.StartingLives = StartingLives
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	world := NewPhysicsWorld()
	desc := levels.ForLevel(1)

	g := &Game{
		cfg:      cfg,
		levels:   levels,
		rng:      rng,
		world:    world,
		craft:    NewSpacecraft(world, cfg.Class, desc.StartPosition.Vec()),
		director: NewEntityDirector(cfg.Director, rng),
		phase:    PhaseMenu,
		level:    1,
		desc:     desc,
		viewers:  make(map[string]Broadcaster),
		stop:     make(chan struct{}),
	}
	g.stats.Lives = cfg.StartingLives
	return g
}

// OnEvent installs a hook called for every flight event
func (g *Game) OnEvent(fn EventSink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEvent = fn
}

// OnLevelComplete installs a hook called when a level is won
func (g *Game) OnLevelComplete(fn func(LevelResult)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLevelComplete = fn
}

// Run drives the simulation from a ticker until Shutdown
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			g.update(dt)
		case <-g.stop:
			return
		}
	}
}

// Shutdown terminates the Run loop
func (g *Game) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.stop)
	}
}

func (g *Game) update(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	g.step(dt)
	if g.tick%BroadcastEvery == 0 && len(g.viewers) > 0 {
		g.broadcastState()
	}
}

// Step advances the simulation by dt seconds. Only the playing phase moves.
func (g *Game) Step(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step(dt)
}

func (g *Game) step(dt float64) {
	if g.phase != PhasePlaying || !(dt > 0) {
		return
	}
	if dt > g.cfg.MaxStep {
		dt = g.cfg.MaxStep
	}
	g.elapsed += dt
	g.mods.Prune(g.elapsed)

	g.applyEnvironment()
	g.craft.Update(dt, g.mods.Factor(ModSpeed))
	g.world.Step(dt)

	ctx := g.tickContext(dt)
	g.director.Update(ctx)

	switch {
	case g.stats.Lives <= 0:
		g.phase = PhaseGameOver
		ctx.emit(EvtGameOver, "lives")
	case g.director.LevelComplete():
		g.completeLevel(ctx)
	case g.elapsed > g.desc.TimeLimit:
		g.phase = PhaseGameOver
		ctx.emit(EvtGameOver, "time")
	}
}

// applyEnvironment pushes the craft with the level's solar wind and jostles
// it with navigation interference
func (g *Game) applyEnvironment() {
	env := g.desc.Environment
	if w := env.SolarWind; w != nil && w.Strength > 0 {
		dir := SafeNormalize(w.Direction.Vec())
		g.world.ApplyForce(g.craft.Body, dir.Mul(w.Strength*CraftMass), nil)
	}
	if b := g.world.Body(g.craft.Body); b != nil && env.NavigationInterference > 0 {
		spin := randVec(g.rng, env.NavigationInterference*interferenceJolt)
		g.world.ApplyTorque(g.craft.Body, mulElem(spin, b.Inertia))
	}
}

func (g *Game) tickContext(dt float64) *TickContext {
	return &TickContext{
		DT:        dt,
		Now:       g.elapsed,
		Level:     g.level,
		Craft:     g.craft,
		World:     g.world,
		Stats:     &g.stats,
		Modifiers: &g.mods,
		Events:    g.emit,
	}
}

// emit forwards an event to viewers and the event hook. Called with mu held.
func (g *Game) emit(ev FlightEvent) {
	for _, v := range g.viewers {
		v.SendJSON(Envelope{T: MsgEvent, Data: ev})
	}
	if g.onEvent != nil {
		g.onEvent(ev)
	}
}

// completeLevel settles the level bonus and moves to victory with the level
// counter advanced exactly once
func (g *Game) completeLevel(ctx *TickContext) {
	flown := g.level
	g.level = g.director.CompleteLevel(ctx)
	g.phase = PhaseVictory
	ctx.emit(EvtLevelComplete, g.desc.ID)

	if g.onLevelComplete != nil {
		g.onLevelComplete(LevelResult{
			Level:         flown,
			LevelID:       g.desc.ID,
			NextLevelID:   g.levels.NextID(g.desc.ID),
			Score:         g.stats.Score,
			Elapsed:       g.elapsed,
			UnlockMessage: g.desc.UnlockMessage,
		})
	}
}

// initLevel rebuilds the world for the current level counter
func (g *Game) initLevel() {
	g.desc = g.levels.ForLevel(g.level)
	g.world.Clear()
	for _, w := range g.desc.Environment.GravityWells {
		g.world.AddGravitySource(GravitySource{
			Position: w.Position.Vec(),
			Mass:     w.Mass,
			Radius:   w.Radius,
			Falloff:  w.Falloff,
		})
	}

	start := g.desc.StartPosition.Vec()
	g.craft.Attach(g.world, start)
	g.craft.Fuel = g.desc.StartingFuel
	g.craft.FuelRegen = g.desc.FuelRegenRate
	g.craft.MaxSpeed = g.desc.MaxSpeed

	size := g.desc.AsteroidSize
	g.asteroids = SpawnAsteroids(g.world, g.rng, g.desc.AsteroidCount, size.Min, size.Max, start)

	var delivery *mgl64.Vec3
	if g.desc.DeliveryPoint != nil {
		v := g.desc.DeliveryPoint.Vec()
		delivery = &v
	}
	g.director.InitLevel(g.level, delivery, g.desc.TimeLimit)
	g.mods.Clear()
	g.elapsed = 0
	log.Printf("game: level %d (%s) started", g.level, g.desc.ID)
}

// clearLevel deregisters every body and drops all level state
func (g *Game) clearLevel() {
	g.world.Clear()
	g.director.Clear()
	g.asteroids = nil
	g.mods.Clear()
	g.elapsed = 0
}

// Start begins the current level from the menu
func (g *Game) Start() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseMenu {
		return false
	}
	g.initLevel()
	g.phase = PhasePlaying
	return true
}

// Pause freezes a running level. Timed modifiers are discarded.
func (g *Game) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying {
		return false
	}
	g.phase = PhasePaused
	g.mods.Clear()
	return true
}

// Resume continues a paused level
func (g *Game) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePaused {
		return false
	}
	g.phase = PhasePlaying
	return true
}

// NextLevel starts the following level. After a victory the counter has
// already advanced; from any other live phase the current level is skipped.
// A lost run must be Reset first.
func (g *Game) NextLevel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseGameOver {
		return false
	}
	if g.phase != PhaseVictory {
		g.level++
	}
	g.initLevel()
	g.phase = PhasePlaying
	return true
}

// Reset returns to the menu with a fresh run
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLevel()
	g.phase = PhaseMenu
	g.level = 1
	g.desc = g.levels.ForLevel(1)
	g.stats = RunStats{Lives: g.cfg.StartingLives}
}

// Stop abandons the level: all bodies are deregistered and modifiers
// discarded. Score and level counter are kept.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLevel()
	g.phase = PhaseMenu
}

// SetThruster sets one thrust intent flag while the level runs
func (g *Game) SetThruster(dir Thruster, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.craft.SetThruster(dir, on)
}

// SetThrusterMask replaces every intent flag at once
func (g *Game) SetThrusterMask(mask uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.craft.SetThrusterMask(mask)
}

// Turn applies a pitch/yaw impulse
func (g *Game) Turn(pitch, yaw float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhasePlaying {
		g.craft.Turn(pitch, yaw)
	}
}

// EmergencyStop brakes the craft hard if it has the fuel
func (g *Game) EmergencyStop() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying {
		return false
	}
	return g.craft.EmergencyStop()
}

// ToggleShield flips the craft shield
func (g *Game) ToggleShield() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying {
		return false
	}
	return g.craft.ToggleShield()
}

// Phase returns the current phase
func (g *Game) Phase() GamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// State returns the status snapshot of the run
func (g *Game) State() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status()
}

func (g *Game) status() GameStatus {
	return GameStatus{
		Phase:        g.phase.String(),
		Score:        g.stats.Score,
		Level:        g.level,
		LevelID:      g.desc.ID,
		LevelName:    g.desc.Name,
		Lives:        g.stats.Lives,
		Elapsed:      round2(g.elapsed),
		TimeLimit:    g.desc.TimeLimit,
		Objectives:   g.objectivesStatus(),
		EnemyCount:   g.director.EnemyCount(),
		PowerUpCount: g.director.PowerUpCount(),
		Craft:        g.craft.ToState(),
	}
}

// ObjectivesStatus returns the display form of the level's objectives
func (g *Game) ObjectivesStatus() []ObjectiveStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.objectivesStatus()
}

func (g *Game) objectivesStatus() []ObjectiveStatus {
	objs := g.director.Objectives()
	out := make([]ObjectiveStatus, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Status())
	}
	return out
}

// Frame returns the full render state
func (g *Game) Frame() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame()
}

func (g *Game) frame() GameState {
	gs := GameState{
		Status:    g.status(),
		Fog:       g.desc.Environment.FogDensity,
		Asteroids: make([]AsteroidState, 0, len(g.asteroids)),
		Tick:      g.tick,
	}
	for _, a := range g.asteroids {
		if st, ok := a.ToState(g.world); ok {
			gs.Asteroids = append(gs.Asteroids, st)
		}
	}
	g.director.snapshot(&gs)
	return gs
}

// AddViewer subscribes a client to state frames and events
func (g *Game) AddViewer(id string, b Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewers[id] = b
}

// RemoveViewer unsubscribes a client
func (g *Game) RemoveViewer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.viewers, id)
}

// ViewerCount returns the number of subscribed clients
func (g *Game) ViewerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.viewers)
}

// broadcastState sends one msgpack frame to every viewer
func (g *Game) broadcastState() {
	data, err := msgpack.Marshal(g.frame())
	if err != nil {
		log.Printf("game: encode frame: %v", err)
		return
	}
	for _, v := range g.viewers {
		v.SendBinary(data)
	}
}
