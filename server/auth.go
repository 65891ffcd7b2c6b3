package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var bcryptCost = 12

var errBadCredentials = errors.New("invalid username or password")

// Auth issues and checks pilot credentials
type Auth struct {
	db        *DB
	jwtSecret []byte

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry // ip -> login attempts
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth over db
func NewAuth(db *DB) *Auth {
	secret := loadOrCreateSecret(db)
	return &Auth{
		db:        db,
		jwtSecret: secret,
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("auth: generate secret: %v", err)
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("auth: could not persist secret: %v", err)
		}
	}
	return secret
}

// PilotLogin is an authenticated pilot as the client sees it
type PilotLogin struct {
	ID        int64
	Username  string
	Token     string
	Class     ShipClass // preselected for the next launch
	LastLogin time.Time // previous login, zero on the first
}

// Register creates a pilot account and signs it in
func (a *Auth) Register(username, password string) (PilotLogin, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return PilotLogin{}, fmt.Errorf("callsign must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return PilotLogin{}, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return PilotLogin{}, fmt.Errorf("database error")
	}
	if exists {
		return PilotLogin{}, fmt.Errorf("callsign already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return PilotLogin{}, fmt.Errorf("internal error")
	}
	id, err := a.db.CreatePilot(username, string(hash))
	if err != nil {
		return PilotLogin{}, fmt.Errorf("failed to create account")
	}
	return a.signIn(&PilotRow{ID: id, Username: username})
}

// Login checks a pilot's password. Attempts are limited per address.
func (a *Auth) Login(username, password, ip string) (PilotLogin, error) {
	if !a.checkRate(ip) {
		return PilotLogin{}, fmt.Errorf("too many login attempts, try again later")
	}

	pilot, err := a.db.GetPilotByUsername(strings.TrimSpace(username))
	if err != nil {
		return PilotLogin{}, fmt.Errorf("database error")
	}
	if pilot == nil || pilot.PassHash == "" {
		return PilotLogin{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pilot.PassHash), []byte(password)); err != nil {
		return PilotLogin{}, errBadCredentials
	}
	return a.signIn(pilot)
}

// Resume signs a pilot back in from a token issued earlier. The token is
// reused; a pilot deleted since it was issued is refused.
func (a *Auth) Resume(token string) (PilotLogin, error) {
	id, _, err := a.ValidateToken(token)
	if err != nil {
		return PilotLogin{}, err
	}
	pilot, err := a.db.GetPilot(id)
	if err != nil {
		return PilotLogin{}, fmt.Errorf("database error")
	}
	if pilot == nil {
		return PilotLogin{}, fmt.Errorf("unknown pilot")
	}
	out := loginFor(pilot)
	out.Token = token
	a.stampLogin(pilot.ID)
	return out, nil
}

// signIn issues a fresh token and stamps the login
func (a *Auth) signIn(pilot *PilotRow) (PilotLogin, error) {
	token, err := a.generateToken(pilot.ID, pilot.Username)
	if err != nil {
		return PilotLogin{}, fmt.Errorf("internal error")
	}
	out := loginFor(pilot)
	out.Token = token
	a.stampLogin(pilot.ID)
	return out, nil
}

func loginFor(pilot *PilotRow) PilotLogin {
	out := PilotLogin{ID: pilot.ID, Username: pilot.Username, Class: pilot.ShipClass}
	if pilot.LastLogin.Valid {
		out.LastLogin = pilot.LastLogin.Time
	}
	return out
}

func (a *Auth) stampLogin(id int64) {
	if err := a.db.RecordLogin(id, time.Now()); err != nil {
		log.Printf("auth: record login: %v", err)
	}
}

// ValidateToken returns the pilot id and username carried by a token
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	pidFloat, ok := claims["pid"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	return int64(pidFloat), username, nil
}

func (a *Auth) generateToken(pilotID int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"pid": pilotID,
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
