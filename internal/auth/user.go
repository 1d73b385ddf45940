package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRole int

const (
	UserRoleAdmin UserRole = iota
	UserRoleReadWrite
	UserRoleReadOnly
)

var (
	InsufficientPermissions = errors.New("Insufficient permissions to perform this action")
	InvalidCredentials      = errors.New("Invalid username or password")
)

type User struct {
	Id       string
	Name     string
	Password []byte
	Role     UserRole
}

func NewUser(name, password string, role UserRole) (*User, error) {
	// password max size is 72 bytes because of bcrypt limit
	hashed_password, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{uuid.New().String(), name, hashed_password, role}, nil
}

func (u *User) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

func (u *User) HasClearance(r UserRole) bool { return u.Role <= r }

// Users is the set of accounts a server accepts.
type Users []*User

// Authenticate finds the user matching name and password.
func (users Users) Authenticate(name, password string) (*User, error) {
	if name == "" {
		return nil, InvalidCredentials
	}
	for _, u := range users {
		if u.Name == name && u.ValidateUser(password) {
			return u, nil
		}
	}
	return nil, InvalidCredentials
}
