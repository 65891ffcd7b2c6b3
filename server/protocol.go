package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreate       = "create" // create a flight session
	MsgJoin         = "join"   // watch and fly a session
	MsgLeave        = "leave"
	MsgControl      = "control" // phone controller attach
	MsgCmd          = "cmd"     // phase command
	MsgThrust       = "thrust"
	MsgTurn         = "turn"
	MsgRegister     = "register"
	MsgLogin        = "login"
	MsgAuth         = "auth"
	MsgProgress     = "progress" // request saved progress
	MsgSettings     = "settings" // request settings; also the reply
	MsgSaveSettings = "save_settings"
	MsgLeaderboard  = "leaderboard" // request a level's best runs; also the reply
)

// Server -> Client message types
const (
	MsgCreated   = "created"
	MsgJoined    = "joined"
	MsgControlOK = "control_ok"
	MsgState     = "state" // binary msgpack GameState
	MsgStatus    = "status"
	MsgEvent     = "event"
	MsgAuthOK    = "auth_ok"
	MsgError     = "error"
)

// Phase commands carried by MsgCmd
const (
	CmdStart         = "start"
	CmdPause         = "pause"
	CmdResume        = "resume"
	CmdReset         = "reset"
	CmdNextLevel     = "next"
	CmdStop          = "stop"
	CmdEmergencyStop = "brake"
	CmdShield        = "shield"
)

// binaryThrustTag marks the compact thrust frame [tag, mask]
const binaryThrustTag = 0x01

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope defers decoding of the payload until the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateMsg asks for a new flight session
type CreateMsg struct {
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
}

// JoinMsg attaches a viewer to a session
type JoinMsg struct {
	SessionID string `json:"sid"`
}

// ControlMsg attaches a phone controller to a session
type ControlMsg struct {
	SID string `json:"sid"`
}

// CmdMsg is a phase or craft command
type CmdMsg struct {
	Cmd string `json:"cmd"`
}

// ThrustMsg sets one thruster
type ThrustMsg struct {
	Dir string `json:"dir"`
	On  bool   `json:"on"`
}

// TurnMsg is a pitch/yaw impulse in [-1, 1]
type TurnMsg struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// RegisterMsg creates a pilot account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates a pilot
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a pilot session from a token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	PilotID   int64  `json:"pid"`
	Class     string `json:"class"`          // class flown last
	LastLogin int64  `json:"last,omitempty"` // unix seconds of the previous login
}

// LeaderboardMsg asks for a level's best victories. An empty level id means
// the first level.
type LeaderboardMsg struct {
	LevelID string `json:"lid"`
	Limit   int    `json:"limit,omitempty"`
}

// LeaderboardReply answers MsgLeaderboard
type LeaderboardReply struct {
	LevelID string             `json:"lid"`
	Entries []LeaderboardEntry `json:"entries"`
}

// CreatedMsg answers MsgCreate
type CreatedMsg struct {
	SID  string `json:"sid"`
	Pair string `json:"pair"` // QR image path for the controller
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CraftState is the craft's telemetry
type CraftState struct {
	Pos    [3]float64 `json:"pos" msgpack:"pos"`
	Vel    [3]float64 `json:"vel" msgpack:"vel"`
	Rot    [4]float64 `json:"rot" msgpack:"rot"` // w, x, y, z
	Speed  float64    `json:"spd" msgpack:"spd"`
	Fuel   float64    `json:"fuel" msgpack:"fuel"`
	Shield bool       `json:"sh" msgpack:"sh"`
	Energy float64    `json:"en" msgpack:"en"`
	Class  int        `json:"cls" msgpack:"cls"`
	Thrust uint8      `json:"th" msgpack:"th"` // bit i = thruster i
}

// EnemyState is broadcast per enemy
type EnemyState struct {
	ID    string     `json:"id" msgpack:"id"`
	Pos   [3]float64 `json:"pos" msgpack:"pos"`
	HP    float64    `json:"hp" msgpack:"hp"`
	MaxHP float64    `json:"mhp" msgpack:"mhp"`
	AI    string     `json:"ai" msgpack:"ai"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID    string     `json:"id" msgpack:"id"`
	Pos   [3]float64 `json:"pos" msgpack:"pos"`
	Owner string     `json:"o" msgpack:"o"`
}

// PowerUpState is broadcast per power-up
type PowerUpState struct {
	ID   string     `json:"id" msgpack:"id"`
	Type string     `json:"type" msgpack:"type"`
	Pos  [3]float64 `json:"pos" msgpack:"pos"`
}

// ParticleState is broadcast per particle
type ParticleState struct {
	Pos   [3]float64 `json:"pos" msgpack:"pos"`
	Scale float64    `json:"s" msgpack:"s"`
	Kind  string     `json:"k" msgpack:"k"`
}

// DeliveryState is broadcast per delivery point
type DeliveryState struct {
	ID        string     `json:"id" msgpack:"id"`
	Pos       [3]float64 `json:"pos" msgpack:"pos"`
	Radius    float64    `json:"r" msgpack:"r"`
	Delivered bool       `json:"done" msgpack:"done"`
}

// AsteroidState is broadcast per asteroid
type AsteroidState struct {
	ID  string     `json:"id" msgpack:"id"`
	Pos [3]float64 `json:"pos" msgpack:"pos"`
	Rot [4]float64 `json:"rot" msgpack:"rot"`
	R   float64    `json:"r" msgpack:"r"`
}

// GameStatus is the summary of a run
type GameStatus struct {
	Phase        string            `json:"phase" msgpack:"phase"`
	Score        int               `json:"score" msgpack:"score"`
	Level        int               `json:"level" msgpack:"level"`
	LevelID      string            `json:"lid" msgpack:"lid"`
	LevelName    string            `json:"lname" msgpack:"lname"`
	Lives        int               `json:"lives" msgpack:"lives"`
	Elapsed      float64           `json:"elapsed" msgpack:"elapsed"`
	TimeLimit    float64           `json:"limit" msgpack:"limit"`
	Objectives   []ObjectiveStatus `json:"obj" msgpack:"obj"`
	EnemyCount   int               `json:"enemies" msgpack:"enemies"`
	PowerUpCount int               `json:"powerups" msgpack:"powerups"`
	Craft        CraftState        `json:"craft" msgpack:"craft"`
}

// GameState is the full render frame
type GameState struct {
	Status      GameStatus        `json:"st" msgpack:"st"`
	Fog         float64           `json:"fog,omitempty" msgpack:"fog,omitempty"`
	Asteroids   []AsteroidState   `json:"a" msgpack:"a"`
	Enemies     []EnemyState      `json:"e" msgpack:"e"`
	Projectiles []ProjectileState `json:"pr" msgpack:"pr"`
	PowerUps    []PowerUpState    `json:"pu" msgpack:"pu"`
	Particles   []ParticleState   `json:"fx" msgpack:"fx"`
	Deliveries  []DeliveryState   `json:"dp" msgpack:"dp"`
	Tick        uint64            `json:"tick" msgpack:"tick"`
}
