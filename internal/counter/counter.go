// Package counter combines the persisted real download count with the
// synthetic count into the values the site exposes.
//
// Service is the only place where store failures are turned into defaults:
// reads fall back to zero, writes report false and increments are dropped.
// Every such failure is logged.
package counter

import (
	"context"
	"errors"
	"time"

	"github.com/tckz/tempo-downloads/internal/store"
	"github.com/tckz/tempo-downloads/internal/synth"
	"go.uber.org/zap"
)

const DefaultKey = "tempo_downloads_real"

type Breakdown struct {
	Real    int64
	Fake    int64
	Display int64
	At      time.Time
}

type options struct {
	key    string
	now    func() time.Time
	logger *zap.SugaredLogger
}

type Option func(o *options)

func WithKey(key string) Option {
	return Option(func(o *options) {
		o.key = key
	})
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return Option(func(o *options) {
		o.now = now
	})
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return Option(func(o *options) {
		o.logger = logger
	})
}

type Service struct {
	store  store.Store
	launch time.Time
	options
}

func New(st store.Store, launch time.Time, opts ...Option) *Service {
	options := options{
		key:    DefaultKey,
		now:    time.Now,
		logger: zap.NewNop().Sugar(),
	}
	for _, e := range opts {
		e(&options)
	}

	return &Service{
		store:   st,
		launch:  launch,
		options: options,
	}
}

func (s *Service) Launch() time.Time {
	return s.launch
}

// RealCount returns the persisted count, or 0 when it can't be read.
func (s *Service) RealCount(ctx context.Context) int64 {
	v, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.failed("Get", err)
		return 0
	}
	return v
}

// FakeCount returns the synthetic count at t.
func (s *Service) FakeCount(t time.Time) int64 {
	return synth.FakeCount(t, s.launch)
}

func (s *Service) DisplayCount(ctx context.Context) int64 {
	return s.RealCount(ctx) + s.FakeCount(s.now())
}

// IncrementReal adds one real download. Failures are logged and dropped.
func (s *Service) IncrementReal(ctx context.Context) {
	n, err := s.store.Incr(ctx, s.key)
	if err != nil {
		s.failed("Incr", err)
		return
	}
	s.logger.Debugf("incremented %s to %d", s.key, n)
}

// SetReal overwrites the persisted count. A negative count is rejected with
// ErrInvalidCount before the store is touched; otherwise the result reports
// whether the store accepted the write.
func (s *Service) SetReal(ctx context.Context, count int64) (bool, error) {
	if count < 0 {
		return false, invalidCount(count)
	}
	if err := s.store.Set(ctx, s.key, count); err != nil {
		s.failed("Set", err)
		return false, nil
	}
	s.logger.Infof("set %s to %d", s.key, count)
	return true, nil
}

// Breakdown reports the real and synthetic parts of the display count.
// Display is always Real + Fake.
func (s *Service) Breakdown(ctx context.Context) Breakdown {
	realCount := s.RealCount(ctx)
	at := s.now()
	fake := s.FakeCount(at)
	return Breakdown{
		Real:    realCount,
		Fake:    fake,
		Display: realCount + fake,
		At:      at,
	}
}

func (s *Service) failed(op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, store.ErrNotConfigured):
		s.logger.Debugf("%s %s: %v", op, s.key, err)
	default:
		s.logger.With(zap.Error(err)).Errorf("%s %s failed", op, s.key)
	}
}
