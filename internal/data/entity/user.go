package entity

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// DescriptorSize is the dimensionality of an enrolled face descriptor.
const DescriptorSize = 128

// Field is a set of column groups changed since a User was loaded. Save
// writes only these.
type Field uint8

const (
	FieldPassword Field = 1 << iota
	FieldRole
	FieldResetToken
	FieldCart
)

type User struct {
	Base
	FirstName           string     `db:"first_name"`
	LastName            string     `db:"last_name"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password"`
	PhoneNumber         string     `db:"phone_number"`
	Role                UserRole   `db:"role"`
	FaceDescriptor      []float32  `db:"face_descriptor"`
	ResetTokenHash      *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`
	Cart                []CartItem `db:"cart"`

	// newPassword holds a plaintext set via SetPassword until the store hashes it.
	newPassword *string
	changed     Field
	cartAdded   []CartItem
}

// SetPassword stages a plaintext password. The credential store hashes it on
// the next Create or Save; PasswordHash is left untouched until then.
func (u *User) SetPassword(plain string) {
	u.newPassword = &plain
	u.changed |= FieldPassword
}

// PendingPassword returns the staged plaintext, if any.
func (u *User) PendingPassword() (string, bool) {
	if u.newPassword == nil {
		return "", false
	}
	return *u.newPassword, true
}

// CommitPassword stores hash as the password and clears the staged plaintext.
func (u *User) CommitPassword(hash string) {
	u.PasswordHash = hash
	u.newPassword = nil
}

func (u *User) SetRole(role UserRole) {
	u.Role = role
	u.changed |= FieldRole
}

// AddToCart appends items. The store appends the same items to the stored
// cart rather than replacing it.
func (u *User) AddToCart(items ...CartItem) {
	u.Cart = append(u.Cart, items...)
	u.cartAdded = append(u.cartAdded, items...)
	u.changed |= FieldCart
}

// CartAdditions returns the items added since the last save.
func (u *User) CartAdditions() []CartItem {
	return u.cartAdded
}

func (u *User) Changed(f Field) bool {
	return u.changed&f != 0
}

// MarkSaved forgets pending changes once they are persisted.
func (u *User) MarkSaved() {
	u.changed = 0
	u.cartAdded = nil
}

func (u *User) HasFace() bool {
	return len(u.FaceDescriptor) == DescriptorSize
}

// SetResetToken stores both reset fields together.
func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.ResetTokenHash = &hash
	u.ResetTokenExpiresAt = &expiresAt
	u.changed |= FieldResetToken
}

func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	u.changed |= FieldResetToken
}
