package httphandler

import (
	"net/http"
	"time"

	"quizduel/internal/auth"
	"quizduel/internal/match"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// UserStore is the profile store behind the account and leaderboard endpoints
type UserStore interface {
	Create(username, password string) (*auth.User, error)
	Authenticate(username, password string) (*auth.User, error)
	GetByUsername(username string) (*auth.User, error)
	RecordLogin(id string) (*auth.User, error)
	UsersByXP(query string) []auth.Profile
	Len() int
}

// TokenIssuer signs session tokens for authenticated users
type TokenIssuer interface {
	Issue(u *auth.User) (string, time.Time, error)
}

// Deps is everything the HTTP surface needs
type Deps struct {
	Users          UserStore
	Tokens         TokenIssuer
	Rooms          *match.Registry
	WS             http.Handler
	AllowedOrigins []string
	Log            logrus.FieldLogger
}

type Server struct {
	users  UserStore
	tokens TokenIssuer
	rooms  *match.Registry
	log    logrus.FieldLogger
}

// NewRouter wires all routes
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	s := &Server{users: d.Users, tokens: d.Tokens, rooms: d.Rooms, log: d.Log.WithField("component", "http")}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger(s.log))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", s.Health)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.Signup)
		r.Post("/login", s.Login)
		r.Get("/leaderboard", s.Leaderboard)
		r.Get("/users/{username}", s.Profile)
		r.Get("/rooms/{code}", s.Room)
	})

	if d.WS != nil {
		mux.Method(http.MethodGet, "/ws", d.WS)
	}

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return mux
}

// requestLogger logs one line per request
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("request")
		})
	}
}
