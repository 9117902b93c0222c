package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// accountsBootstrapLock — ключ транзакционной advisory-блокировки, сериализующей
// подсчёт и вставку при создании записей.
const accountsBootstrapLock int64 = 0x70686f746f // "photo"

const accountColumns = `id, identity, credential_hash, refresh_token, email_confirmed, role, created_at, updated_at`

// Create создаёт учётную запись. Первая запись получает роль admin.
func (s *Storage) Create(ctx context.Context, identity, credentialHash string) (*models.Account, error) {
	const op = "storage.postgres.Create"

	acc, err := s.insert(ctx, &models.Account{Identity: identity, CredentialHash: credentialHash})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// FindByIdentity находит запись по identity.
func (s *Storage) FindByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	const op = "storage.postgres.FindByIdentity"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE identity = $1`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, identity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// FindByID находит запись по ID.
func (s *Storage) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.postgres.FindByID"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// Save — upsert: ID == 0 вставляет запись, иначе обновляет изменяемые поля.
// Identity и created_at не меняются.
func (s *Storage) Save(ctx context.Context, acc *models.Account) (*models.Account, error) {
	const op = "storage.postgres.Save"

	if acc == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if acc.ID == 0 {
		saved, err := s.insert(ctx, acc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return saved, nil
	}

	query := `
		UPDATE accounts
		SET credential_hash = $2,
		    refresh_token   = $3,
		    email_confirmed = $4,
		    role            = $5,
		    updated_at      = now()
		WHERE id = $1
		RETURNING ` + accountColumns

	saved, err := scanAccount(s.db.QueryRow(ctx, query,
		acc.ID,
		acc.CredentialHash,
		acc.StoredRefreshToken,
		acc.EmailConfirmed,
		string(acc.Role),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return saved, nil
}

// SetRefreshToken записывает только refresh_token; nil очищает его.
func (s *Storage) SetRefreshToken(ctx context.Context, id int64, tok *string) (*models.Account, error) {
	const op = "storage.postgres.SetRefreshToken"

	acc, err := s.updateAccount(ctx, `refresh_token = $2`, id, tok)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// MarkEmailConfirmed выставляет email_confirmed = true.
func (s *Storage) MarkEmailConfirmed(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.postgres.MarkEmailConfirmed"

	acc, err := s.updateAccount(ctx, `email_confirmed = TRUE`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// SetRole меняет только роль. Недопустимая роль отсекается CHECK-ограничением.
func (s *Storage) SetRole(ctx context.Context, id int64, role models.Role) (*models.Account, error) {
	const op = "storage.postgres.SetRole"

	acc, err := s.updateAccount(ctx, `role = $2`, id, string(role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// updateAccount обновляет перечисленные в set колонки одной инструкцией UPDATE;
// $1 — id, остальные параметры идут в args.
func (s *Storage) updateAccount(ctx context.Context, set string, id int64, args ...any) (*models.Account, error) {
	query := `UPDATE accounts SET ` + set + `, updated_at = now() WHERE id = $1 RETURNING ` + accountColumns

	acc, err := scanAccount(s.db.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, mapPgError(err)
	}

	return acc, nil
}

// CountAll возвращает число учётных записей.
func (s *Storage) CountAll(ctx context.Context) (int64, error) {
	const op = "storage.postgres.CountAll"

	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// insert выполняет подсчёт и вставку в одной транзакции под advisory-блокировкой,
// поэтому две одновременные первые регистрации не получат admin обе.
func (s *Storage) insert(ctx context.Context, acc *models.Account) (*models.Account, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, accountsBootstrapLock); err != nil {
		return nil, err
	}

	var n int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return nil, err
	}

	role := acc.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	if n == 0 {
		role = models.RoleAdmin
	}

	query := `
		INSERT INTO accounts (identity, credential_hash, refresh_token, email_confirmed, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns

	saved, err := scanAccount(tx.QueryRow(ctx, query,
		acc.Identity,
		acc.CredentialHash,
		acc.StoredRefreshToken,
		acc.EmailConfirmed,
		string(role),
	))
	if err != nil {
		return nil, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return saved, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		acc  models.Account
		role string
	)

	if err := row.Scan(
		&acc.ID,
		&acc.Identity,
		&acc.CredentialHash,
		&acc.StoredRefreshToken,
		&acc.EmailConfirmed,
		&role,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	acc.Role = models.Role(role)
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.UpdatedAt = acc.UpdatedAt.UTC()

	return &acc, nil
}
