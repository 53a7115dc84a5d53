package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecom-backend/internal/data/entity"
	"ecom-backend/pkg/database"
	"ecom-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicateEmail is returned by Create when another live user already
// owns the email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrNotFound is returned by writes that matched no live row.
var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password, phone_number, role,
		       face_descriptor, reset_token_hash, reset_token_expires_at, cart,
		       created_at, updated_at, deleted_at`

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Save(ctx context.Context, user *entity.User) error
	ConsumeResetToken(ctx context.Context, user *entity.User, hash string, now time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	ListEnrolled(ctx context.Context) ([]*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db     database.PgxIface
	hasher utils.PasswordHasher
	log    *zap.Logger
	now    func() time.Time
}

func NewUserRepository(db database.PgxIface, hasher utils.PasswordHasher, log *zap.Logger) UserRepository {
	return &userRepository{
		db:     db,
		hasher: hasher,
		log:    log.With(zap.String("repository", "user")),
		now:    time.Now,
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	if _, ok := user.PendingPassword(); !ok {
		return fmt.Errorf("create user %s: password not set", user.Email)
	}
	if err := ur.hashPending(user); err != nil {
		return err
	}

	now := ur.now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = entity.RoleCustomer
	}

	cart, err := encodeCart(user.Cart)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, first_name, last_name, email, password, phone_number, role,
		                   face_descriptor, reset_token_hash, reset_token_expires_at, cart,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = ur.db.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.PhoneNumber,
		user.Role,
		user.FaceDescriptor,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		cart,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	user.MarkSaved()
	return nil
}

// Save writes only the fields changed through the User setters since it was
// loaded, so a stale copy never overwrites a concurrent write to another
// field. Cart additions are appended to the stored cart. The password is
// hashed only when a new one was staged with SetPassword.
func (ur *userRepository) Save(ctx context.Context, user *entity.User) error {
	if err := ur.hashPending(user); err != nil {
		return err
	}

	now := ur.now()
	args := []any{user.ID, now}
	sets := []string{"updated_at = $2"}
	set := func(expr string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if user.Changed(entity.FieldPassword) {
		set("password = $%d", user.PasswordHash)
	}
	if user.Changed(entity.FieldRole) {
		set("role = $%d", user.Role)
	}
	if user.Changed(entity.FieldResetToken) {
		set("reset_token_hash = $%d", user.ResetTokenHash)
		set("reset_token_expires_at = $%d", user.ResetTokenExpiresAt)
	}
	if user.Changed(entity.FieldCart) {
		added, err := encodeCart(user.CartAdditions())
		if err != nil {
			return err
		}
		set("cart = cart || $%d::jsonb", added)
	}

	if len(sets) == 1 {
		return nil
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING cart`

	var cart []byte
	err := ur.db.QueryRow(ctx, query, args...).Scan(&cart)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update user %s: %w", user.ID.String(), ErrNotFound)
	}
	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID.String(), err)
	}

	items, err := decodeCart(cart)
	if err != nil {
		return err
	}
	user.Cart = items
	user.UpdatedAt = now
	user.MarkSaved()
	return nil
}

// ConsumeResetToken stores the staged password and clears the reset token in
// one statement, provided hash is still the stored token and unexpired at
// now. A token consumed or replaced in the meantime yields ErrNotFound.
func (ur *userRepository) ConsumeResetToken(ctx context.Context, user *entity.User, hash string, now time.Time) error {
	if _, ok := user.PendingPassword(); !ok {
		return fmt.Errorf("consume reset token for %s: password not set", user.ID.String())
	}
	if err := ur.hashPending(user); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET password = $2, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $3
		WHERE id = $1
		  AND reset_token_hash = $4
		  AND reset_token_expires_at > $5
		  AND deleted_at IS NULL
	`

	updatedAt := ur.now()
	result, err := ur.db.Exec(ctx, query, user.ID, user.PasswordHash, updatedAt, hash, now)
	if err != nil {
		ur.log.Error("Failed to consume reset token",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("consume reset token for %s: %w", user.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("consume reset token for %s: %w", user.ID.String(), ErrNotFound)
	}

	user.ClearResetToken()
	user.UpdatedAt = updatedAt
	user.MarkSaved()
	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = NormalizeEmail(email)
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = $1 AND deleted_at IS NULL
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

// FindByResetTokenHash returns the user holding hash whose token is still
// valid at now, or nil.
func (ur *userRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE reset_token_hash = $1
		  AND reset_token_expires_at > $2
		  AND deleted_at IS NULL
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, hash, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by reset token", zap.Error(err))
		return nil, fmt.Errorf("find user by reset token: %w", err)
	}

	return user, nil
}

// ListEnrolled returns every live user with a face descriptor in a stable
// order (oldest first). It reads the whole gallery on each call.
func (ur *userRepository) ListEnrolled(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE face_descriptor IS NOT NULL AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := ur.db.Query(ctx, query)
	if err != nil {
		ur.log.Error("Failed to list enrolled users", zap.Error(err))
		return nil, fmt.Errorf("list enrolled users: %w", err)
	}

	return ur.collect(rows, "enrolled users")
}

// FindAll retrieves paginated list of users
func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := ur.db.Query(ctx, query, limit, offset)
	if err != nil {
		ur.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}

	return ur.collect(rows, "users")
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`

	var count int64
	err := ur.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		ur.log.Error("Database error counting users",
			zap.Error(err),
		)
		return 0, fmt.Errorf("count all users: %w", err)
	}

	return count, nil
}

func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := ur.db.Exec(ctx, query, id, ur.now())
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user %s: %w", id.String(), ErrNotFound)
	}

	ur.log.Info("User deleted", zap.String("id", id.String()))
	return nil
}

// ==================== HELPERS ====================

func (ur *userRepository) hashPending(user *entity.User) error {
	plain, ok := user.PendingPassword()
	if !ok {
		return nil
	}

	hash, err := ur.hasher.Hash(plain)
	if err != nil {
		ur.log.Error("Failed to hash password", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	user.CommitPassword(hash)
	return nil
}

func (ur *userRepository) collect(rows pgx.Rows, what string) ([]*entity.User, error) {
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan %s row: %w", what, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate %s rows: %w", what, err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		user entity.User
		cart []byte
	)

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.Role,
		&user.FaceDescriptor,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&cart,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if user.Cart, err = decodeCart(cart); err != nil {
		return nil, err
	}

	return &user, nil
}

func decodeCart(b []byte) ([]entity.CartItem, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var items []entity.CartItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

func encodeCart(items []entity.CartItem) ([]byte, error) {
	if items == nil {
		items = []entity.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
