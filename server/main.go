package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	dbPath := flag.String("db", "zerog.db", "SQLite database path (empty keeps records in memory)")
	levelsPath := flag.String("levels", "", "YAML level catalogue (default: built-in campaign)")
	seed := flag.Int64("seed", 0, "Simulation random seed (0 = from clock)")
	flag.Parse()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	levels := DefaultLevels()
	if *levelsPath != "" {
		loaded, err := LoadLevels(*levelsPath)
		if err != nil {
			log.Fatalf("levels: %v", err)
		}
		levels = loaded
	}

	sim := DefaultSimConfig()
	sim.Seed = *seed
	deps := SessionDeps{Levels: levels, Sim: sim}

	if *dbPath != "" {
		db, err := OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		flightLog := NewFlightLog(db)
		defer flightLog.Stop()
		deps.DB = db
		deps.Store = NewSQLiteStore(db)
		deps.Log = flightLog
	} else {
		deps.Store = NewMemoryStore()
	}

	hub := NewHub(deps)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		log.Printf("%d levels loaded", len(levels.Levels))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	hub.sessions.CloseAll()
}
