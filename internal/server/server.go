package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/victornm/asking/internal/api"
	"github.com/victornm/asking/internal/event"
	"github.com/victornm/asking/internal/identity"
	"github.com/victornm/asking/internal/leaderboard"
	"github.com/victornm/asking/internal/quiz"
	"github.com/victornm/asking/internal/store/memory"
	pgstore "github.com/victornm/asking/internal/store/postgres"
	redisstore "github.com/victornm/asking/internal/store/redis"
	"github.com/victornm/asking/internal/store/sqlite"
	"github.com/victornm/asking/internal/telemetry"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Log struct {
		Level  string
		Format string
	}

	HTTP struct {
		Port        int32
		CORSOrigins []string
	}

	GRPC struct {
		Port int32
	}

	Quiz struct {
		QuestionsPerSession int
		// BankFile is a YAML question bank. Empty uses the built-in questions.
		BankFile string
	}

	Leaderboard struct {
		// Store is one of memory, redis, postgres or sqlite.
		Store        string
		Collection   string
		WriteRetries int
	}

	Identity struct {
		Secret   string
		Issuer   string
		TokenTTL time.Duration
	}

	Redis struct {
		Addrs  []string
		Pass   string
		Prefix string
	}

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	SQLite struct {
		Path string
	}
}

// DefaultConfig is the configuration used for keys missing from the config file.
func DefaultConfig() Config {
	var c Config
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Quiz.QuestionsPerSession = quiz.DefaultQuestionsPerSession
	c.Leaderboard.Store = StoreMemory
	c.Leaderboard.Collection = leaderboard.DefaultCollection
	c.Leaderboard.WriteRetries = 1
	c.Identity.Issuer = "asking"
	c.Identity.TokenTTL = 30 * 24 * time.Hour
	c.Redis.Prefix = "asking"
	c.SQLite.Path = "asking.db"
	return c
}

// PostgresDSN builds the connection string for the configured database.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s", c.Postgres.User, c.Postgres.Pass, c.Postgres.Addr, c.Postgres.Name)
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
		sqlite   *sqlite.ScoreStore

		scores   leaderboard.ScoreStore
		profiles identity.ProfileStore
	}

	service struct {
		quiz        *quiz.Service
		leaderboard *leaderboard.Service
		identity    *identity.Service
	}

	http *http.Server
	grpc *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	if c.Identity.Secret == "" {
		return nil, fmt.Errorf("server: identity.secret is required")
	}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		s.closeInfra()
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		s.closeInfra()
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if len(s.c.Redis.Addrs) > 0 {
		if err := s.initRedis(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	switch strings.ToLower(s.c.Leaderboard.Store) {
	case StoreMemory, "":
		s.infra.scores = memory.NewScoreStore()
	case StoreRedis:
		if s.infra.redis == nil {
			return fmt.Errorf("leaderboard store redis: redis.addrs is empty")
		}
		s.infra.scores = redisstore.NewScoreStore(s.infra.redis, s.c.Redis.Prefix)
	case StorePostgres:
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.infra.scores = pgstore.NewScoreStore(s.infra.postgres)
	case StoreSQLite:
		if err := s.initSQLite(); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		s.infra.scores = s.infra.sqlite
	default:
		return fmt.Errorf("unknown leaderboard store %q", s.c.Leaderboard.Store)
	}

	if s.infra.redis != nil {
		s.infra.profiles = redisstore.NewProfileStore(s.infra.redis, s.c.Redis.Prefix)
	} else {
		s.infra.profiles = memory.NewProfileStore()
	}

	slog.Info("server: infra ready", "store", s.c.Leaderboard.Store, "redis", s.infra.redis != nil)
	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Addrs,
		Password: s.c.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		r.Close()
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		r.Close()
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(s.c.PostgresDSN())
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initSQLite() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := sqlite.Open(ctx, s.c.SQLite.Path)
	if err != nil {
		return err
	}

	s.infra.sqlite = st
	return nil
}

func (s *Server) initService() error {
	bank := quiz.DefaultBank()
	if s.c.Quiz.BankFile != "" {
		b, err := quiz.LoadBankFile(s.c.Quiz.BankFile)
		if err != nil {
			return err
		}
		bank = b
	}

	s.service.quiz = quiz.NewService(quiz.Config{
		EventBus:            s.eb,
		Bank:                bank,
		QuestionsPerSession: s.c.Quiz.QuestionsPerSession,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus:     s.eb,
		Store:        s.infra.scores,
		Collection:   s.c.Leaderboard.Collection,
		WriteRetries: s.c.Leaderboard.WriteRetries,
	})

	s.service.identity = identity.NewService(identity.Config{
		Secret:   s.c.Identity.Secret,
		Issuer:   s.c.Identity.Issuer,
		TokenTTL: s.c.Identity.TokenTTL,
		Profiles: s.infra.profiles,
	})

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())
	e.GET("/healthz", s.healthz)

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())

	c := api.Config{
		GRPC:         s.grpc,
		HTTP:         e,
		EventBus:     s.eb,
		Quiz:         s.service.quiz,
		Leaderboard:  s.service.leaderboard,
		Identity:     s.service.identity,
		PubsubPrefix: s.c.Redis.Prefix + ":pubsub",
	}
	if s.infra.redis != nil {
		c.Redis = s.infra.redis
	}
	api.New(c)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           s.withCORS(e),
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) withCORS(h http.Handler) http.Handler {
	if len(s.c.HTTP.CORSOrigins) == 0 {
		return h
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   s.c.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
}

// healthz reports whether the configured backing stores are reachable.
func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true
	check := func(name string, err error) {
		if err != nil {
			healthy = false
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}

	if s.infra.redis != nil {
		check("redis", s.infra.redis.Ping(ctx).Err())
	}
	if s.infra.postgres != nil {
		check("postgres", s.infra.postgres.Ping(ctx))
	}
	if s.infra.sqlite != nil {
		check("sqlite", s.infra.sqlite.Ping(ctx))
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": healthy, "checks": checks})
}

// Handler returns the HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	// Pending score writes finish before their stores are closed.
	s.eb.Stop()
	s.closeInfra()

	slog.InfoContext(ctx, "server: shutdown completed")
}

func (s *Server) closeInfra() {
	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.Error("server: close redis failed", "error", err)
		}
	}
	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}
	if s.infra.sqlite != nil {
		if err := s.infra.sqlite.Close(); err != nil {
			slog.Error("server: close sqlite failed", "error", err)
		}
	}
}
