package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

type entry struct {
	snap    *Snapshot
	expires time.Time
}

// Store guarda o snapshot corrente. Uma atualização substitui o snapshot inteiro de forma atómica,
// pelo que uma calculação em curso nunca vê regras antigas e novas misturadas.
type Store struct {
	loader   interfaces.ReferenceLoader
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	recorder interfaces.Recorder

	current atomic.Pointer[entry]
	group   singleflight.Group
}

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

func WithRecorder(r interfaces.Recorder) Option { return func(s *Store) { s.recorder = r } }

func NewStore(loader interfaces.ReferenceLoader, ttl time.Duration, opts ...Option) *Store {
	s := &Store{loader: loader, ttl: ttl, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reference_cache")
	return s
}

var _ interfaces.ReferenceProvider = (*Store)(nil)

// Snapshot devolve o snapshot corrente, recarregando quando expirado. Se a recarga falhar
// e existir um snapshot anterior, este continua a ser servido.
func (s *Store) Snapshot(ctx context.Context) (interfaces.ReferenceSnapshot, error) {
	e := s.current.Load()
	if e != nil && s.now().Before(e.expires) {
		return e.snap, nil
	}

	snap, err := s.reload(ctx)
	if err != nil {
		if e != nil {
			s.logger.Warn("reference reload failed, serving previous snapshot",
				zap.String("version", e.snap.Version()), zap.Error(err))
			return e.snap, nil
		}
		return nil, err
	}
	return snap, nil
}

// Refresh força uma recarga; em caso de erro o snapshot anterior mantém-se.
func (s *Store) Refresh(ctx context.Context) error {
	_, err := s.reload(ctx)
	return err
}

// Invalidate marca o snapshot corrente como expirado sem o descartar.
func (s *Store) Invalidate() {
	for {
		e := s.current.Load()
		if e == nil {
			return
		}
		if s.current.CompareAndSwap(e, &entry{snap: e.snap}) {
			s.logger.Debug("reference snapshot invalidated", zap.String("version", e.snap.Version()))
			return
		}
	}
}

// Version devolve a versão do snapshot carregado, ou "" se ainda não houver nenhum.
func (s *Store) Version() string {
	if e := s.current.Load(); e != nil {
		return e.snap.Version()
	}
	return ""
}

func (s *Store) reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.group.Do("reference", func() (any, error) {
		data, err := s.loader.Load(ctx)
		if err != nil {
			s.record(false)
			return nil, fmt.Errorf("failed to load reference data: %w", err)
		}
		now := s.now()
		snap := NewSnapshot(data, now)
		s.current.Store(&entry{snap: snap, expires: now.Add(s.ttl)})
		s.record(true)
		s.logger.Info("reference snapshot loaded",
			zap.String("version", snap.Version()),
			zap.Int("countries", len(data.Countries)),
			zap.Int("rules", len(data.Rules)))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *Store) record(ok bool) {
	if s.recorder != nil {
		s.recorder.ReferenceRefreshed(ok)
	}
}
