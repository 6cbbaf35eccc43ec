package app

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"quizduel"
	"quizduel/internal/auth"
	"quizduel/internal/config"
	"quizduel/internal/game"
	httphandler "quizduel/internal/http"
	"quizduel/internal/match"
	"quizduel/internal/ws"

	"github.com/sirupsen/logrus"
)

// App is the wired server
type App struct {
	Handler http.Handler
	Manager *match.Manager
	Users   *auth.Store
}

// Close stops pending room timers and waits for in-flight match records
func (a *App) Close() { a.Manager.Close() }

// Boot loads the question pool, opens the profile store and wires the match manager behind HTTP and WebSocket routes
func Boot(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	pool, err := loadPool(cfg.QuestionsFile)
	if err != nil {
		return nil, err
	}
	log.WithField("questions", pool.Len()).Info("question pool loaded")

	policy := game.DefaultPolicy()
	policy.PointsPerCorrect = cfg.PointsPerCorrect
	policy.WinBonus = cfg.WinBonus
	policy.TieBonus = cfg.TieBonus
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	users, err := auth.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	key, err := auth.LoadKey(cfg.DataDir, cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokens(key, cfg.TokenTTL)

	rooms := match.NewRegistry(nil, nil)
	manager := match.NewManager(rooms, pool, match.Options{
		QuestionCount: cfg.QuestionCount,
		GraceDelay:    cfg.GraceDelay,
		Retention:     cfg.Retention,
		Policy:        policy,
		Recorder:      users,
		Log:           log,
	})

	wsHandler := ws.NewHandler(ws.NewDispatcher(manager, log), tokens, cfg.AllowedOrigins, log)
	handler := httphandler.NewRouter(httphandler.Deps{
		Users:          users,
		Tokens:         tokens,
		Rooms:          rooms,
		WS:             wsHandler,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	return &App{Handler: handler, Manager: manager, Users: users}, nil
}

// loadPool reads path, or every embedded question file when path is empty
func loadPool(path string) (*game.Pool, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open questions: %w", err)
		}
		defer f.Close()
		return game.LoadPool(f)
	}

	files, err := fs.Glob(quizduel.Content, "questions/*.json")
	if err != nil {
		return nil, err
	}
	var all []game.Question
	for _, name := range files {
		b, err := fs.ReadFile(quizduel.Content, name)
		if err != nil {
			return nil, err
		}
		var qs []game.Question
		if err := json.Unmarshal(b, &qs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		all = append(all, qs...)
	}
	return game.NewPool(all)
}
