package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sleipnir-web/sleipnir/dispatch"
	"github.com/sleipnir-web/sleipnir/middleware"
	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/server"
	"github.com/sleipnir-web/sleipnir/session"
)

const addr = ":8440"
const sessionFile = "sessions.jsonl"

func main() {
	rt := router.NewRouter()

	rt.Get("/", func(r *request.Request, w *response.Response, s *session.Session) {
		w.HTML("<h1>hullo</h1>")
	})

	rt.Get("/users/me", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("the literal route wins")
	})

	rt.Get("/users/:id", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("user " + r.PathParams["id"])
	})

	rt.Get(`/orders/:id(\d+)`, func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("order #" + r.PathParams["id"])
	})

	rt.Get("/static/*filepath", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("would serve " + r.PathParams["filepath"])
	})

	rt.Get("/json", func(r *request.Request, w *response.Response, s *session.Session) {
		if err := w.JSON(map[string]any{"hello": 1, "hi": "bye"}); err != nil {
			w.SetStatus(response.StatusInternalServerError)
		}
	})

	rt.Get("/visits", func(r *request.Request, w *response.Response, s *session.Session) {
		visits, err := session.Get[int](s, "visits")
		if err != nil {
			// first visit or invalidated session
			visits = 0
		}
		visits++
		s.Set("visits", visits)
		w.Text(fmt.Sprintf("you have been here %d times", visits))
	})

	rt.Get("/old-home", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Redirect("/")
	})

	rt.Get("/panic", func(r *request.Request, w *response.Response, s *session.Session) {
		panic("kaboom")
	})

	rt.Delete("/api/:user", func(r *request.Request, w *response.Response, s *session.Session) {
		force := r.Query.Get("force")
		w.Text(fmt.Sprintf("user %s deleted with force=%s", r.PathParams["user"], force))
	})

	if err := rt.Handle("/api/*path", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("all good, frfr\n")
	}); err != nil {
		log.Fatalf("route registration failed: %v", err)
	}

	store := session.NewStore()
	if err := store.LoadFile(sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("could not restore sessions:", err)
	}
	stopSweeper := store.StartSweeper(5 * time.Minute)
	defer stopSweeper()

	rt.Post("/forget-me", func(r *request.Request, w *response.Response, s *session.Session) {
		store.Invalidate(s.ID())
		w.Text("session destroyed")
	})

	d := dispatch.New(rt, store)
	d.Use(middleware.LoggingColored)

	srv, err := server.Serve(server.Opts{
		Address:          addr,
		ReadTimeout:      30 * time.Second,
		KeepAliveTimeout: 10 * time.Second,
	}, d)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
	defer srv.Close()
	log.Println("server started on", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := store.SaveFile(sessionFile); err != nil {
		log.Println("could not persist sessions:", err)
	}
	log.Println("server gracefully stopped")
}
