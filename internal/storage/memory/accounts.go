// memory — потокобезопасная in-memory реализация storage.CredentialStore.
// Используется в тестах и при локальном запуске без PostgreSQL.
// Наружу всегда отдаются копии записей.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

type Accounts struct {
	mu         sync.RWMutex
	clock      clock.Clock
	nextID     int64
	byID       map[int64]*models.Account
	byIdentity map[string]int64
}

func NewAccounts(clk clock.Clock) *Accounts {
	if clk == nil {
		clk = clock.Real{}
	}

	return &Accounts{
		clock:      clk,
		byID:       make(map[int64]*models.Account),
		byIdentity: make(map[string]int64),
	}
}

func (s *Accounts) Create(ctx context.Context, identity, credentialHash string) (*models.Account, error) {
	const op = "storage.memory.Create"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIdentity[identity]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	role := models.RoleUser
	if len(s.byID) == 0 {
		role = models.RoleAdmin
	}

	now := s.clock.Now()

	return s.insertLocked(&models.Account{
		Identity:       identity,
		CredentialHash: credentialHash,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}), nil
}

func (s *Accounts) FindByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	const op = "storage.memory.FindByIdentity"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byIdentity[identity]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return s.byID[id].Clone(), nil
}

func (s *Accounts) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.memory.FindByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return acc.Clone(), nil
}

// Save — upsert. Identity и CreatedAt существующей записи не меняются.
func (s *Accounts) Save(ctx context.Context, acc *models.Account) (*models.Account, error) {
	const op = "storage.memory.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if acc.ID == 0 {
		if _, ok := s.byIdentity[acc.Identity]; ok {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		in := acc.Clone()
		if !in.Role.Valid() {
			in.Role = models.RoleUser
		}
		if len(s.byID) == 0 {
			in.Role = models.RoleAdmin
		}
		in.CreatedAt, in.UpdatedAt = now, now

		return s.insertLocked(in), nil
	}

	cur, ok := s.byID[acc.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if !acc.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	upd := acc.Clone()
	upd.Identity = cur.Identity
	upd.CreatedAt = cur.CreatedAt
	upd.UpdatedAt = now
	s.byID[acc.ID] = upd

	return upd.Clone(), nil
}

func (s *Accounts) SetRefreshToken(ctx context.Context, id int64, tok *string) (*models.Account, error) {
	return s.update(ctx, "storage.memory.SetRefreshToken", id, func(acc *models.Account) error {
		if tok == nil {
			acc.StoredRefreshToken = nil
			return nil
		}
		v := *tok
		acc.StoredRefreshToken = &v
		return nil
	})
}

func (s *Accounts) MarkEmailConfirmed(ctx context.Context, id int64) (*models.Account, error) {
	return s.update(ctx, "storage.memory.MarkEmailConfirmed", id, func(acc *models.Account) error {
		acc.EmailConfirmed = true
		return nil
	})
}

func (s *Accounts) SetRole(ctx context.Context, id int64, role models.Role) (*models.Account, error) {
	return s.update(ctx, "storage.memory.SetRole", id, func(acc *models.Account) error {
		if !role.Valid() {
			return storage.ErrInvalidArgument
		}
		acc.Role = role
		return nil
	})
}

// update применяет fn к копии записи под блокировкой и сохраняет результат.
func (s *Accounts) update(ctx context.Context, op string, id int64, fn func(*models.Account) error) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	upd := cur.Clone()
	if err := fn(upd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	upd.UpdatedAt = s.clock.Now()
	s.byID[id] = upd

	return upd.Clone(), nil
}

func (s *Accounts) CountAll(ctx context.Context) (int64, error) {
	const op = "storage.memory.CountAll"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.byID)), nil
}

func (s *Accounts) insertLocked(acc *models.Account) *models.Account {
	s.nextID++
	acc.ID = s.nextID
	s.byID[acc.ID] = acc
	s.byIdentity[acc.Identity] = acc.ID

	return acc.Clone()
}

var _ storage.CredentialStore = (*Accounts)(nil)
