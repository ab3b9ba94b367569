package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/ukane-philemon/studentmarks/internal/admin"
	"github.com/ukane-philemon/studentmarks/internal/jwt"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
)

// Server serves the student records API.
type Server struct {
	repo           student.Repository
	admin          admin.Repository
	JWTManager     *jwt.Manager
	loginRateLimit int
	log            *zap.Logger
}

// NewServer creates and returns a new instance of *Server. adminRepo may be
// nil, in which case no admin can log in and every mutation route is
// refused. loginRateLimit is the number of login attempts allowed per
// minute from one IP.
func NewServer(repo student.Repository, adminRepo admin.Repository, loginRateLimit int, log *zap.Logger) (*Server, error) {
	jwtManager, err := jwt.NewJWTManager(jwt.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("jwt.NewJWTManager error: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	if loginRateLimit < 1 {
		loginRateLimit = 1
	}

	return &Server{
		repo:           repo,
		admin:          adminRepo,
		JWTManager:     jwtManager,
		loginRateLimit: loginRateLimit,
		log:            log.Named("api"),
	}, nil
}

// Router returns the http.Handler serving every route.
func (s *Server) Router() http.Handler {
	chiMux := chi.NewMux()
	chiMux.Use(middleware.RequestID)
	chiMux.Use(requestLogger(s.log))
	chiMux.Use(middleware.Recoverer)
	chiMux.Use(AuthMiddleware(s.JWTManager))

	chiMux.With(httprate.LimitByIP(s.loginRateLimit, time.Minute)).Post("/login", s.login)

	chiMux.Route("/students", func(r chi.Router) {
		r.Get("/", s.allStudents)
		r.Get("/highest", s.highestStudent)
		r.Get("/lowest", s.lowestStudent)
		r.Get("/average", s.averagePercentage)
		r.Get("/summary", s.summary)
		r.Get("/{index}", s.studentByIndex)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", s.addStudent)
			r.Post("/sort", s.sortStudents)
			r.Post("/flush", s.flush)
			r.Put("/{index}", s.updateStudent)
			r.Delete("/{index}", s.deleteStudent)
		})
	})

	return chiMux
}
