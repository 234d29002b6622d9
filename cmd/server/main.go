package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"

	"github.com/apitienda/store-api/auth"
	"github.com/apitienda/store-api/email"
	"github.com/apitienda/store-api/internal/config"
	"github.com/apitienda/store-api/postgres"
	"github.com/apitienda/store-api/server"
	"github.com/apitienda/store-api/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load() // Missing .env is fine, real env vars still apply

	c := config.New()
	displayAppname(c.GetAppName())

	ctx := context.Background()
	db, err := postgres.Open(ctx, c.GetDatabaseDSN())
	if err != nil {
		return fmt.Errorf("postgres.Open: %w", err)
	}
	defer db.Close()

	repos := auth.Repos{
		Users:  postgres.NewUserRepo(db),
		Ledger: postgres.NewLedgerRepo(db),
		Resets: postgres.NewResetRepo(db),
	}
	issuer := token.NewIssuer(c)
	mailer := email.NewSMTPSender(c, c.GetBaseURL())

	sessions, err := auth.NewSessionService(repos, issuer, mailer)
	if err != nil {
		return fmt.Errorf("auth.NewSessionService: %w", err)
	}

	srv, err := server.New(c, sessions, issuer, repos.Users, postgres.NewProductRepo(db))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	go listenAndServe(srv, c.GetPort())
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

func listenAndServe(srv *server.Server, addr string) {
	log.Printf("Server listening on %s\n", addr)
	if err := srv.Start(); err != nil {
		log.Printf("server.Start: %s\n", err)
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("server.Stop: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
