package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ecom-backend/internal/data/entity"
	"ecom-backend/internal/dto/request"
	"ecom-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const resetBase = "http://localhost:3000/reset-password/"

var tokenInLink = regexp.MustCompile(regexp.QuoteMeta(resetBase) + `([0-9a-f]{64})`)

type resetFixture struct {
	svc    *passwordService
	repo   *memUserRepo
	mail   *fakeMailer
	hasher *utils.BcryptHasher
	user   *entity.User
	now    time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	hasher, err := utils.NewBcryptHasher(utils.MinBcryptCost)
	require.NoError(t, err)
	repo := newMemUserRepo(hasher)

	user := &entity.User{FirstName: "Ada", Email: "ada@x.com"}
	user.SetPassword("oldpass")
	require.NoError(t, repo.Create(context.Background(), user))

	f := &resetFixture{repo: repo, mail: &fakeMailer{}, hasher: hasher, user: user}
	f.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc = NewPasswordService(repo, f.mail, utils.ResetConfig{ExpiryMinutes: 10, URLBase: resetBase}, zap.NewNop()).(*passwordService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *resetFixture) forgot(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.svc.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "ADA@x.com"}))

	m := tokenInLink.FindStringSubmatch(f.mail.last().HTML)
	require.Len(t, m, 2, "reset link missing from email")
	return m[1]
}

func (f *resetFixture) reset(token, password string) error {
	return f.svc.ResetPassword(context.Background(), &request.ResetPasswordRequest{Token: token, NewPassword: password})
}

func TestForgotPassword_StoresDigestOnly(t *testing.T) {
	f := newResetFixture(t)

	token := f.forgot(t)

	stored := f.repo.stored(f.user.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, utils.HashToken(token), *stored.ResetTokenHash)
	assert.NotEqual(t, token, *stored.ResetTokenHash)
	assert.Equal(t, f.now.Add(10*time.Minute), *stored.ResetTokenExpiresAt)
	assert.Equal(t, "ada@x.com", f.mail.last().To)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := newResetFixture(t)

	err := f.svc.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "nobody@x.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.mail.sent)
}

func TestForgotPassword_MailFailure(t *testing.T) {
	f := newResetFixture(t)
	f.mail.err = errors.New("smtp: 421 try later")

	err := f.svc.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "ada@x.com"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestResetPassword_ChangesPasswordAndClearsToken(t *testing.T) {
	f := newResetFixture(t)
	token := f.forgot(t)
	hashesBefore := f.repo.hashCalls

	require.NoError(t, f.reset(token, "newpass"))

	stored := f.repo.stored(f.user.ID)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiresAt)
	assert.Equal(t, hashesBefore+1, f.repo.hashCalls)
	assert.True(t, f.hasher.Verify("newpass", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("oldpass", stored.PasswordHash))

	assert.ErrorIs(t, f.reset(token, "another"), ErrInvalidOrExpiredToken, "token is single use")
}

func TestResetPassword_ReissueInvalidatesEarlierToken(t *testing.T) {
	f := newResetFixture(t)

	first := f.forgot(t)
	second := f.forgot(t)
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, f.reset(first, "newpass"), ErrInvalidOrExpiredToken)
	assert.NoError(t, f.reset(second, "newpass"))
}

func TestResetPassword_Expiry(t *testing.T) {
	f := newResetFixture(t)
	token := f.forgot(t)

	f.now = f.now.Add(10*time.Minute + time.Second)
	assert.ErrorIs(t, f.reset(token, "newpass"), ErrInvalidOrExpiredToken)

	f.now = f.now.Add(-2 * time.Second)
	assert.NoError(t, f.reset(token, "newpass"))
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newResetFixture(t)

	assert.ErrorIs(t, f.reset("deadbeef", "newpass"), ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, f.reset("", "newpass"), ErrInvalidOrExpiredToken)
}

func TestResetPassword_WeakPassword(t *testing.T) {
	f := newResetFixture(t)
	token := f.forgot(t)

	assert.ErrorIs(t, f.reset(token, "123"), ErrInvalidInput)
	assert.NotNil(t, f.repo.stored(f.user.ID).ResetTokenHash, "token survives a rejected attempt")
}

func TestResetPassword_SurvivesStaleCartSave(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	token := f.forgot(t)

	stale, err := f.repo.FindByID(ctx, f.user.ID)
	require.NoError(t, err)

	require.NoError(t, f.reset(token, "newpass1"))

	stale.AddToCart(entity.CartItem{ProductID: "p1", Name: "Cupcake", Price: 2.5, Quantity: 1})
	require.NoError(t, f.repo.Save(ctx, stale))

	stored := f.repo.stored(f.user.ID)
	assert.True(t, f.hasher.Verify("newpass1", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("oldpass", stored.PasswordHash))
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiresAt)
	assert.Len(t, stored.Cart, 1)

	assert.ErrorIs(t, f.reset(token, "another1"), ErrInvalidOrExpiredToken)
}

// snapshotLookup answers every token lookup with a copy taken earlier, as a
// request that read the row just before another one consumed the token would.
type snapshotLookup struct {
	*memUserRepo
	snapshot *entity.User
}

func (s snapshotLookup) FindByResetTokenHash(context.Context, string, time.Time) (*entity.User, error) {
	return clone(s.snapshot), nil
}

func TestResetPassword_TokenSpentOnceUnderRace(t *testing.T) {
	f := newResetFixture(t)
	token := f.forgot(t)
	f.svc.userRepo = snapshotLookup{memUserRepo: f.repo, snapshot: f.repo.stored(f.user.ID)}

	require.NoError(t, f.reset(token, "newpass1"))
	assert.ErrorIs(t, f.reset(token, "newpass2"), ErrInvalidOrExpiredToken)

	stored := f.repo.stored(f.user.ID)
	assert.True(t, f.hasher.Verify("newpass1", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("newpass2", stored.PasswordHash))
}
