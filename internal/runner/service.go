package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "homehub/pkg/logx"
)

// CronFields is a five-field cron specification.
type CronFields struct {
	Minute      string
	Hour        string
	DayOfMonth  string
	MonthOfYear string
	DayOfWeek   string
}

// Spec renders the fields in the parser's "minute hour dom month dow" order.
func (f CronFields) Spec() string {
	return strings.Join([]string{f.Minute, f.Hour, f.DayOfMonth, f.MonthOfYear, f.DayOfWeek}, " ")
}

type Config struct {
	// Timezone is an IANA TZ; empty means local.
	Timezone string
}

// Service wraps robfig/cron with name-keyed registrations. Re-registering a
// name removes the previous entry first, so the live set never holds two
// jobs for one name. Concurrent saves of the same name race on this replace
// and the last writer wins.
type Service struct {
	log logx.Logger

	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]cron.EntryID
	started bool
}

func New(cfg Config, log logx.Logger) *Service {
	loc := time.Local
	tz := strings.TrimSpace(cfg.Timezone)
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			log.Warn("invalid timezone; falling back to local", logx.String("tz", tz), logx.Err(err))
		}
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		log:     log,
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		entries: map[string]cron.EntryID{},
	}
}

func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.c.Start()
	s.started = true
	s.log.Info("runner started", logx.Int("jobs", len(s.entries)))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	s.log.Info("runner stopped")
}

// RegisterCron registers (or replaces) a periodic job under name using the
// five cron fields.
func (s *Service) RegisterCron(name string, fields CronFields, fn TaskFunc) error {
	return s.register(name, fields.Spec(), fn)
}

// RegisterInterval registers (or replaces) a periodic job under name firing
// every the given number of seconds.
func (s *Service) RegisterInterval(name string, seconds int64, fn TaskFunc) error {
	if seconds <= 0 {
		return fmt.Errorf("interval must be positive, got %d", seconds)
	}
	return s.register(name, fmt.Sprintf("@every %ds", seconds), fn)
}

func (s *Service) register(name, spec string, fn TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Replace semantics: drop any prior entry under this name.
	if old, ok := s.entries[name]; ok {
		s.c.Remove(old)
		delete(s.entries, name)
	}

	id, err := s.c.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("register %q (%s): %w", name, spec, err)
	}
	s.entries[name] = id
	s.log.Info("job registered", logx.String("name", name), logx.String("spec", spec))
	return nil
}

// Revoke removes the job registered under name. It reports whether an entry
// existed; revoking an unknown name is not an error.
func (s *Service) Revoke(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.c.Remove(id)
	delete(s.entries, name)
	s.log.Info("job revoked", logx.String("name", name))
	return true
}

// Registered lists the names currently bound to live cron entries.
func (s *Service) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *Service) run(name string, fn TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in job",
				logx.String("name", name),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()
	start := time.Now()
	err := fn(context.Background())
	if err != nil {
		s.log.Warn("job failed", logx.String("name", name), logx.Duration("took", time.Since(start)), logx.Err(err))
		return
	}
	s.log.Debug("job ran", logx.String("name", name), logx.Duration("took", time.Since(start)))
}
