package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minetrack/internal/config"
	"minetrack/internal/domain"
	"minetrack/internal/engine/auth"
	"minetrack/internal/events"
	"minetrack/internal/logger"
	"minetrack/internal/repo"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrDuplicateOpen    = errors.New("equipment already has an active downtime")
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    logger.OrNop(log),
		Now:    time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Engine) log() *zap.Logger {
	return logger.OrNop(e.Log)
}

func (e Engine) config() *config.Config {
	if e.Config == nil {
		return config.Default()
	}
	return e.Config
}

func (e Engine) events() events.Writer {
	w := e.Events
	w.Now = e.now
	return w
}

// registry loads the equipment snapshot, falling back to the seed when the
// blob is absent or malformed. A nil tx reads outside any transaction.
func (e Engine) registry(ctx context.Context, tx *sql.Tx) (Registry, error) {
	var list []domain.Equipment
	var err error
	if tx != nil {
		list, err = e.Repo.EquipmentTx(ctx, tx)
	} else {
		list, err = e.Repo.Equipment(ctx)
	}
	switch {
	case err == nil:
		return Registry(list), nil
	case errors.Is(err, repo.ErrMalformed):
		e.log().Warn("discarding malformed blob", zap.String("key", repo.KeyEquipment), zap.Error(err))
		fallthrough
	case errors.Is(err, repo.ErrNotFound):
		return Registry(e.config().SeedRegistry()), nil
	}
	return nil, fmt.Errorf("load equipment: %w", err)
}

// ledger loads the downtime snapshot; absent or malformed is empty.
func (e Engine) ledger(ctx context.Context, tx *sql.Tx) (Ledger, error) {
	var list []domain.DowntimeEvent
	var err error
	if tx != nil {
		list, err = e.Repo.DowntimesTx(ctx, tx)
	} else {
		list, err = e.Repo.Downtimes(ctx)
	}
	switch {
	case err == nil:
		return Ledger(list), nil
	case errors.Is(err, repo.ErrMalformed):
		e.log().Warn("discarding malformed blob", zap.String("key", repo.KeyDowntimes), zap.Error(err))
		fallthrough
	case errors.Is(err, repo.ErrNotFound):
		return Ledger{}, nil
	}
	return nil, fmt.Errorf("load downtimes: %w", err)
}

// authorize checks actor against want. An empty actor is unauthenticated.
func authorize(actor domain.Session, want auth.Capability) error {
	if actor.Name == "" {
		return ErrNotAuthenticated
	}
	return auth.Require(actor.Role, want)
}

// LoginInput is the identity claim of a login. Nothing is verified beyond
// presence and the role enum.
type LoginInput struct {
	Name     string      `json:"name" validate:"required,max=120"`
	Role     domain.Role `json:"role" validate:"required,oneof=operator team_leader supervisor maintenance engineer overseer_miner shift_boss mine_captain mine_manager admin"`
	ZPNumber string      `json:"zpNumber" validate:"required,max=64"`
}

// Login persists the session blob, replacing any previous session.
func (e Engine) Login(ctx context.Context, in LoginInput) (domain.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ZPNumber = strings.TrimSpace(in.ZPNumber)
	in.Role = domain.Role(strings.TrimSpace(string(in.Role)))
	if err := validateStruct(in); err != nil {
		return domain.Session{}, err
	}
	s := domain.Session{Name: in.Name, Role: in.Role, ZPNumber: in.ZPNumber}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.SaveSessionTx(ctx, tx, s); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	if err := e.events().Append(ctx, tx, events.SessionLogin, "session", "", s.Name, events.EventPayload{"role": s.Role}); err != nil {
		return domain.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Session{}, err
	}
	e.log().Info("session started", zap.String("name", s.Name), zap.String("role", string(s.Role)))
	return s, nil
}

// Logout removes the session blob. Logging out twice is not an error.
func (e Engine) Logout(ctx context.Context) error {
	actor := ""
	if s, err := e.CurrentSession(ctx); err == nil {
		actor = s.Name
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteSessionTx(ctx, tx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if actor != "" {
		if err := e.events().Append(ctx, tx, events.SessionLogout, "session", "", actor, nil); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CurrentSession returns the persisted session or ErrNotAuthenticated.
func (e Engine) CurrentSession(ctx context.Context) (domain.Session, error) {
	s, err := e.Repo.Session(ctx)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, repo.ErrMalformed):
		e.log().Warn("discarding malformed blob", zap.String("key", repo.KeySession), zap.Error(err))
		return domain.Session{}, ErrNotAuthenticated
	case errors.Is(err, repo.ErrNotFound):
		return domain.Session{}, ErrNotAuthenticated
	}
	return domain.Session{}, err
}

// Capabilities returns the capability set of the current session, all false
// when nobody is logged in.
func (e Engine) Capabilities(ctx context.Context) auth.Capabilities {
	s, err := e.CurrentSession(ctx)
	if err != nil {
		return auth.Capabilities{}
	}
	return auth.CapabilitiesFor(s.Role)
}

// Navigation returns the destinations visible to the current session.
func (e Engine) Navigation(ctx context.Context) Navigation {
	s, err := e.CurrentSession(ctx)
	if err != nil {
		return Navigation{Items: []NavItem{}, Landing: DestLogin}
	}
	return NavigationFor(s.Role)
}
