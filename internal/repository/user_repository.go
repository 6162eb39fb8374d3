package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dependency-manager/config"
	"dependency-manager/internal/model"
	"dependency-manager/internal/util"

	"github.com/lib/pq"
)

// ErrUserNotFound : пользователь не найден или деактивирован
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrEmailTaken : email уже занят (unique constraint на users.email)
var ErrEmailTaken = errors.New("email уже занят")

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, email, password_hash, first_name, last_name, role, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING uuid, email, first_name, last_name, role, is_active, created_at
	`

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query,
		user.UUID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
	).Scan(
		&createdUser.UUID,
		&createdUser.Email,
		&createdUser.FirstName,
		&createdUser.LastName,
		&createdUser.Role,
		&createdUser.IsActive,
		&createdUser.CreatedAt,
	)

	if err != nil {
		// Проверка ExistsByEmail не атомарна со вставкой: параллельная
		// регистрация того же email ловится уже на constraint
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByEmail : ищет активного пользователя по email.
// Email нормализуется к нижнему регистру на уровне сервиса
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
	SELECT uuid, email, password_hash, first_name, last_name, role, is_active,
	       failed_login_attempts, lock_until, password_changed_at, last_login, created_at
	FROM users WHERE email = $1 AND is_active = TRUE
	`
	var user model.User
	err := r.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}

// FindByUUID : ищет активного пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	query := `
	SELECT uuid, email, password_hash, first_name, last_name, role, is_active,
	       failed_login_attempts, lock_until, password_changed_at, last_login, created_at
	FROM users WHERE uuid = $1 AND is_active = TRUE
	`
	var user model.User
	err := r.DB.GetContext(ctx, &user, query, uuid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// ExistsByEmail : проверяет, занят ли email (включая деактивированные аккаунты)
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	err := r.DB.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, util.LogError("[UserRepo] ошибка проверки существования пользователя", err)
	}
	return exists, nil
}

// RecordLoginFailure : фиксирует неудачную попытку входа.
// lockUntil != nil означает, что порог достигнут и аккаунт блокируется
func (r *UserRepository) RecordLoginFailure(ctx context.Context, uuid string, attempts int, lockUntil *time.Time) error {
	query := `UPDATE users SET failed_login_attempts = $2, lock_until = $3 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, attempts, lockUntil)
	if err != nil {
		return util.LogError("[UserRepo] не удалось записать неудачную попытку входа", err)
	}
	return nil
}

// RecordLoginSuccess : сбрасывает счетчик неудачных попыток и обновляет last_login
func (r *UserRepository) RecordLoginSuccess(ctx context.Context, uuid string, loginAt time.Time) error {
	query := `
	UPDATE users
	SET failed_login_attempts = 0, lock_until = NULL, last_login = $2
	WHERE uuid = $1
	`
	_, err := r.DB.ExecContext(ctx, query, uuid, loginAt)
	if err != nil {
		return util.LogError("[UserRepo] не удалось записать успешный вход", err)
	}
	return nil
}

// UpdatePassword : меняет пароль пользователя и фиксирует время смены.
// password_changed_at нужен middleware, чтобы отвергать токены, выданные до смены
func (r *UserRepository) UpdatePassword(ctx context.Context, uuid, newPasswordHash string, changedAt time.Time) error {
	query := `UPDATE users SET password_hash = $2, password_changed_at = $3 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, newPasswordHash, changedAt)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить пароль", err)
	}
	return nil
}
