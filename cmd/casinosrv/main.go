package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/team-evalux/CasinoBack-sub000/pkg/gateway"
	"github.com/team-evalux/CasinoBack-sub000/pkg/server"
	"github.com/team-evalux/CasinoBack-sub000/pkg/utils"
)

func main() {
	var (
		datadir    string
		dbPath     string
		host       string
		port       int
		seed       int64
		admins     string
		debugLevel string
	)
	flag.StringVar(&datadir, "datadir", "", "Data directory (default: system temp)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&port, "port", 8080, "Port to listen on")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for shoes (0 = random)")
	flag.StringVar(&admins, "admins", "", "Comma-separated identities allowed to close any table")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if datadir == "" {
		datadir = filepath.Join(os.TempDir(), "casinosrv")
	}
	if err := utils.EnsureDataDirExists(datadir); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if dbPath == "" {
		dbPath = filepath.Join(datadir, "casino.sqlite")
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logBackend, _ := logging.NewLogBackend(logging.LogConfig{DebugLevel: debugLevel})
	log := logBackend.Logger("MAIN")

	if seed == 0 {
		if env := os.Getenv("CASINO_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}

	var adminList []string
	for _, a := range strings.Split(admins, ",") {
		if a = strings.TrimSpace(a); a != "" {
			adminList = append(adminList, a)
		}
	}

	srv, err := server.New(server.Config{
		DB:         db,
		Seed:       seed,
		Admins:     adminList,
		LogBackend: logBackend,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	gw := gateway.New(logBackend.Logger("GATE"), srv)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "http serve error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Infof("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}
	srv.Shutdown()
}
