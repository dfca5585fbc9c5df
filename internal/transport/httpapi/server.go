// Package httpapi exposes the JSON HTTP surface.
//
// Every response uses the envelope {code, data?, message?, total?}. Auth is
// a "token" header checked by middleware; admin-only routes additionally
// require the admin flag.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"homehub/internal/auth"
	"homehub/internal/dispatch"
	"homehub/internal/notify"
	"homehub/internal/runner"
	"homehub/internal/scrape"
	"homehub/internal/store"
	"homehub/internal/weather"
	logx "homehub/pkg/logx"
)

type Config struct {
	Addr      string
	StaticDir string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Stores bundles the repositories the handlers touch.
type Stores struct {
	Users       *store.UserStore
	Events      *store.EventStore
	Foods       *store.FoodStore
	Cates       *store.CateStore
	Ingredients *store.IngredientStore
	Crontabs    *store.CrontabStore
	Intervals   *store.IntervalStore
	Tasks       *store.TaskStore
}

type Server struct {
	cfg Config
	log logx.Logger

	auth       *auth.Service
	st         Stores
	dispatcher *dispatch.Dispatcher
	registry   *runner.Registry
	sender     notify.Sender
	scraper    *scrape.Service
	weather    *weather.Client // nil when not configured

	http *http.Server
}

func NewServer(cfg Config, log logx.Logger, authSvc *auth.Service, st Stores,
	dispatcher *dispatch.Dispatcher, registry *runner.Registry, sender notify.Sender,
	scraper *scrape.Service, weatherClient *weather.Client) *Server {

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "./static"
	}

	s := &Server{
		cfg:        cfg,
		log:        log,
		auth:       authSvc,
		st:         st,
		dispatcher: dispatcher,
		registry:   registry,
		sender:     sender,
		scraper:    scraper,
		weather:    weatherClient,
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	// auth
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/qrcode_login_url", s.handleQRLoginURL).Methods(http.MethodGet)
	r.HandleFunc("/qrcode_login", s.handleQRLoginStatus).Methods(http.MethodPost)
	r.HandleFunc("/qrcode_confirm_login", s.requireLogin(s.handleQRLoginConfirm)).Methods(http.MethodPost)

	// users (admin)
	r.HandleFunc("/users/save", s.requireAdmin(s.handleUserSave)).Methods(http.MethodPost)
	r.HandleFunc("/users", s.requireAdmin(s.handleUserList)).Methods(http.MethodGet)
	r.HandleFunc("/users/del", s.requireAdmin(s.handleUserDelete)).Methods(http.MethodPost)

	// events
	r.HandleFunc("/events/save", s.requireLogin(s.handleEventSave)).Methods(http.MethodPost)
	r.HandleFunc("/events", s.requireLogin(s.handleEventList)).Methods(http.MethodGet)
	r.HandleFunc("/events/del", s.requireLogin(s.handleEventDelete)).Methods(http.MethodPost)

	// food / cate / ingredient
	r.HandleFunc("/food/save", s.requireLogin(s.handleFoodSave)).Methods(http.MethodPost)
	r.HandleFunc("/food", s.requireLogin(s.handleFoodList)).Methods(http.MethodGet)
	r.HandleFunc("/food/del", s.requireLogin(s.handleFoodDelete)).Methods(http.MethodPost)
	r.HandleFunc("/cate/save", s.requireLogin(s.handleCateSave)).Methods(http.MethodPost)
	r.HandleFunc("/cate", s.requireLogin(s.handleCateList)).Methods(http.MethodGet)
	r.HandleFunc("/cate/del", s.requireLogin(s.handleCateDelete)).Methods(http.MethodPost)
	r.HandleFunc("/ingredient/save", s.requireLogin(s.handleIngredientSave)).Methods(http.MethodPost)
	r.HandleFunc("/ingredient", s.requireLogin(s.handleIngredientList)).Methods(http.MethodGet)
	r.HandleFunc("/ingredient/del", s.requireLogin(s.handleIngredientDelete)).Methods(http.MethodPost)

	// images
	r.HandleFunc("/image/upload", s.requireLogin(s.handleImageUpload)).Methods(http.MethodPost)
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))

	// misc
	r.HandleFunc("/scrape", s.requireAdmin(s.handleScrape)).Methods(http.MethodGet)
	r.HandleFunc("/msg/send", s.requireAdmin(s.handleMsgSend)).Methods(http.MethodPost)
	r.HandleFunc("/weather", s.requireLogin(s.handleWeather)).Methods(http.MethodGet)

	// schedule definitions (admin)
	r.HandleFunc("/crontab/save", s.requireAdmin(s.handleCrontabSave)).Methods(http.MethodPost)
	r.HandleFunc("/crontab", s.requireAdmin(s.handleCrontabList)).Methods(http.MethodGet)
	r.HandleFunc("/crontab/del", s.requireAdmin(s.handleCrontabDelete)).Methods(http.MethodPost)
	r.HandleFunc("/interval/save", s.requireAdmin(s.handleIntervalSave)).Methods(http.MethodPost)
	r.HandleFunc("/interval", s.requireAdmin(s.handleIntervalList)).Methods(http.MethodGet)
	r.HandleFunc("/interval/del", s.requireAdmin(s.handleIntervalDelete)).Methods(http.MethodPost)

	// scheduled tasks (admin)
	r.HandleFunc("/tasks/save", s.requireAdmin(s.handleTaskSave)).Methods(http.MethodPost)
	r.HandleFunc("/tasks", s.requireAdmin(s.handleTaskList)).Methods(http.MethodGet)
	r.HandleFunc("/tasks/del", s.requireAdmin(s.handleTaskDelete)).Methods(http.MethodPost)
	r.HandleFunc("/tasks/list", s.requireAdmin(s.handleTaskRegistry)).Methods(http.MethodGet)

	return r
}

func (s *Server) Start() error {
	s.log.Info("http server listening", logx.String("addr", s.cfg.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
