package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4096
	sendBufSize        = 256
	maxMessagesPerSec  = 120
	maxNameLen         = 16
	maxLeaderboardRows = 20
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	id           string
	sessionID    string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time

	pilotID  int64  // 0 = guest
	username string // "" = guest
	class    string // last class flown, used when create names none
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(4),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary thrust frame: [0x01, mask]
		if msgType == websocket.BinaryMessage && len(message) == 2 && message[0] == binaryThrustTag {
			c.handleBinaryThrust(message[1])
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.queue(data)
}

// SendBinary queues a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	c.queue(msg)
}

// queue drops the message if the client is too slow. The recover covers a
// send racing the hub closing the channel.
func (c *Client) queue(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(format string, args ...interface{}) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: fmt.Sprintf(format, args...)}})
}

// handleMessage routes incoming JSON envelopes
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgControl:
		c.handleControl(env.D)
	case MsgCmd:
		c.handleCmd(env.D)
	case MsgThrust:
		c.handleThrust(env.D)
	case MsgTurn:
		c.handleTurn(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProgress:
		c.handleProgress()
	case MsgSettings:
		c.handleSettings()
	case MsgSaveSettings:
		c.handleSaveSettings(env.D)
	case MsgLeaderboard:
		c.handleLeaderboard(env.D)
	default:
		c.sendError("unknown message %q", env.T)
	}
}

// session returns the session this client flies or watches
func (c *Client) session() *Session {
	if c.sessionID == "" {
		return nil
	}
	return c.hub.sessions.GetSession(c.sessionID)
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad create message")
			return
		}
	}
	name := msg.Name
	if name == "" {
		name = c.username
	}
	if name == "" {
		name = "Pilot"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	class := msg.Class
	if class == "" {
		class = c.class
	}
	sess := c.hub.sessions.CreateSession(name, c.pilotID, ParseShipClass(class))
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: CreatedMsg{SID: sess.ID, Pair: pairPath(sess.ID)}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}
	sess := c.hub.sessions.AddViewer(msg.SessionID, c.id, c)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	c.sessionID = sess.ID
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgStatus, Data: sess.Game.State()})
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	if !c.isController {
		c.hub.sessions.RemoveViewer(c.sessionID, c.id)
	}
	c.sessionID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.hub.sessions.GetSession(msg.SID) == nil {
		c.sendError("session not found")
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}
	c.sessionID = msg.SID
	c.isController = true
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"sid": msg.SID}})
}

func (c *Client) handleCmd(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		c.sendError("not in a session")
		return
	}
	var msg CmdMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	g := sess.Game
	ok := true
	switch msg.Cmd {
	case CmdStart:
		ok = g.Start()
	case CmdPause:
		ok = g.Pause()
	case CmdResume:
		ok = g.Resume()
	case CmdNextLevel:
		ok = g.NextLevel()
	case CmdReset:
		g.Reset()
	case CmdStop:
		g.Stop()
	case CmdEmergencyStop:
		ok = g.EmergencyStop()
	case CmdShield:
		ok = g.ToggleShield()
	default:
		c.sendError("unknown command %q", msg.Cmd)
		return
	}
	if !ok {
		c.sendError("%s not possible while %s", msg.Cmd, g.Phase())
		return
	}
	c.SendJSON(Envelope{T: MsgStatus, Data: g.State()})
}

func (c *Client) handleThrust(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg ThrustMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	dir, ok := ParseThruster(msg.Dir)
	if !ok {
		c.sendError("unknown thruster %q", msg.Dir)
		return
	}
	sess.Game.SetThruster(dir, msg.On)
}

func (c *Client) handleBinaryThrust(mask uint8) {
	if sess := c.session(); sess != nil {
		sess.Game.SetThrusterMask(mask)
	}
}

func (c *Client) handleTurn(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg TurnMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.Turn(msg.Pitch, msg.Yaw)
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts unavailable")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	login, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError("%v", err)
		return
	}
	c.authenticated(login)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts unavailable")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	login, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError("%v", err)
		return
	}
	c.authenticated(login)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts unavailable")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	login, err := c.hub.auth.Resume(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authenticated(login)
}

func (c *Client) authenticated(login PilotLogin) {
	c.pilotID = login.ID
	c.username = login.Username
	c.class = login.Class.ID()
	ok := AuthOKMsg{
		Token:    login.Token,
		Username: login.Username,
		PilotID:  login.ID,
		Class:    c.class,
	}
	if !login.LastLogin.IsZero() {
		ok.LastLogin = login.LastLogin.Unix()
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: ok})
}

func (c *Client) handleProgress() {
	p := LoadProgress(c.hub.store, c.pilotID, c.hub.levels)
	c.SendJSON(Envelope{T: MsgProgress, Data: p})
}

func (c *Client) handleSettings() {
	c.SendJSON(Envelope{T: MsgSettings, Data: LoadSettings(c.hub.store, c.pilotID)})
}

// handleSaveSettings merges a full or partial record over the stored one
func (c *Client) handleSaveSettings(data json.RawMessage) {
	if c.hub.store == nil {
		c.sendError("settings unavailable")
		return
	}
	v := LoadSettings(c.hub.store, c.pilotID)
	if err := json.Unmarshal(data, &v); err != nil {
		c.sendError("bad settings message")
		return
	}
	saved, err := SaveSettings(c.hub.store, c.pilotID, v)
	if err != nil {
		log.Printf("settings: save for pilot %d: %v", c.pilotID, err)
		c.sendError("could not save settings")
		return
	}
	c.SendJSON(Envelope{T: MsgSettings, Data: saved})
}

func (c *Client) handleLeaderboard(data json.RawMessage) {
	if c.hub.db == nil {
		c.sendError("leaderboard unavailable")
		return
	}
	var msg LeaderboardMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad leaderboard message")
			return
		}
	}
	if msg.LevelID == "" {
		msg.LevelID = c.hub.levels.FirstID()
	}
	if _, ok := c.hub.levels.ByID(msg.LevelID); !ok {
		c.sendError("unknown level %q", msg.LevelID)
		return
	}
	if msg.Limit <= 0 || msg.Limit > maxLeaderboardRows {
		msg.Limit = maxLeaderboardRows
	}
	entries, err := c.hub.db.GetLeaderboard(msg.LevelID, msg.Limit)
	if err != nil {
		log.Printf("leaderboard: %v", err)
		c.sendError("leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	c.SendJSON(Envelope{T: MsgLeaderboard, Data: LeaderboardReply{LevelID: msg.LevelID, Entries: entries}})
}
