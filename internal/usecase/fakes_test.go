package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"ecom-backend/internal/data/entity"
	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/face"
	"ecom-backend/pkg/mailer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memUserRepo is an in-memory repository.UserRepository with the same
// hashing and normalisation rules as the Postgres one.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*entity.User
	hasher interface {
		Hash(string) (string, error)
	}
	hashCalls int
	clock     time.Time
	saveErr   error
}

func newMemUserRepo(hasher interface{ Hash(string) (string, error) }) *memUserRepo {
	return &memUserRepo{
		users:  map[uuid.UUID]*entity.User{},
		hasher: hasher,
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memUserRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memUserRepo) hashPending(u *entity.User) error {
	plain, ok := u.PendingPassword()
	if !ok {
		return nil
	}
	r.hashCalls++
	h, err := r.hasher.Hash(plain)
	if err != nil {
		return err
	}
	u.CommitPassword(h)
	return nil
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := u.PendingPassword(); !ok {
		return errors.New("password not set")
	}
	u.Email = repository.NormalizeEmail(u.Email)
	for _, other := range r.users {
		if other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if err := r.hashPending(u); err != nil {
		return err
	}

	now := r.tick()
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = entity.RoleCustomer
	}
	u.MarkSaved()
	r.users[u.ID] = clone(u)
	return nil
}

// Save applies only the changed fields to the stored record, like the
// Postgres store.
func (r *memUserRepo) Save(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.hashPending(u); err != nil {
		return err
	}

	if u.Changed(entity.FieldPassword) {
		stored.PasswordHash = u.PasswordHash
	}
	if u.Changed(entity.FieldRole) {
		stored.Role = u.Role
	}
	if u.Changed(entity.FieldResetToken) {
		c := clone(u)
		stored.ResetTokenHash, stored.ResetTokenExpiresAt = c.ResetTokenHash, c.ResetTokenExpiresAt
	}
	if u.Changed(entity.FieldCart) {
		stored.Cart = append(stored.Cart, u.CartAdditions()...)
	}
	stored.UpdatedAt = r.tick()

	u.Cart = clone(stored).Cart
	u.UpdatedAt = stored.UpdatedAt
	u.MarkSaved()
	return nil
}

func (r *memUserRepo) ConsumeResetToken(_ context.Context, u *entity.User, hash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.users[u.ID]
	if !ok || stored.ResetTokenHash == nil || *stored.ResetTokenHash != hash || !stored.ResetTokenExpiresAt.After(now) {
		return repository.ErrNotFound
	}
	if err := r.hashPending(u); err != nil {
		return err
	}

	stored.PasswordHash = u.PasswordHash
	stored.ClearResetToken()
	stored.MarkSaved()
	stored.UpdatedAt = r.tick()

	u.ClearResetToken()
	u.UpdatedAt = stored.UpdatedAt
	u.MarkSaved()
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = repository.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == hash && u.ResetTokenExpiresAt.After(now) {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ListEnrolled(context.Context) ([]*entity.User, error) {
	all, _ := r.FindAll(context.Background(), len(r.users), 0)
	out := all[:0]
	for _, u := range all {
		if u.FaceDescriptor != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *memUserRepo) CountAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) stored(id uuid.UUID) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.users[id])
}

func clone(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.FaceDescriptor != nil {
		c.FaceDescriptor = append([]float32(nil), u.FaceDescriptor...)
	}
	if u.Cart != nil {
		c.Cart = append([]entity.CartItem(nil), u.Cart...)
	}
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiresAt != nil {
		t := *u.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &t
	}
	return &c
}

// fakeExtractor maps upload contents to descriptors. Unknown contents have no
// face, empty uploads are not images.
type fakeExtractor struct {
	faces map[string]face.Descriptor
	err   error
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, r io.Reader) (face.Descriptor, error) {
	e.calls++
	if e.err != nil {
		return face.Descriptor{}, e.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return face.Descriptor{}, err
	}
	if len(b) == 0 {
		return face.Descriptor{}, face.ErrUnsupportedImage
	}
	d, ok := e.faces[string(b)]
	if !ok {
		return face.Descriptor{}, face.ErrNoFaceDetected
	}
	return d, nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mailer.Message {
	return m.sent[len(m.sent)-1]
}

func descriptorWith(first float32) face.Descriptor {
	var d face.Descriptor
	for i := range d {
		d[i] = 0.01 * float32(i%7)
	}
	d[0] = first
	return d
}

func parseID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
