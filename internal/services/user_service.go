package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huxley-dev/account-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors handlers map onto HTTP statuses.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// CreateUserParams carries the validated registration fields into the store.
type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
	Bio          string
	Position     string
	Address      models.Address
	ProfileImage string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(p CreateUserParams) (models.User, error)
	GetUserByID(id string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	UpdateProfile(id string, firstName, lastName, email *string) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) error
	UpdateProfileImage(id, imagePath string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(`SELECT id, first_name, last_name, email, phone, bio, position,
		addr_country, addr_city, addr_state, addr_postal_code, addr_tax_id,
		profile_image, is_active, created_at, updated_at
		FROM users WHERE id = ?`, id)
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.Phone, &user.Bio, &user.Position,
		&user.Address.Country, &user.Address.City, &user.Address.State,
		&user.Address.PostalCode, &user.Address.TaxID,
		&user.ProfileImage, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash. The email is case-normalized before lookup.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(`SELECT id, first_name, last_name, email, password_hash,
		phone, bio, position,
		addr_country, addr_city, addr_state, addr_postal_code, addr_tax_id,
		profile_image, is_active, created_at, updated_at
		FROM users WHERE email = ?`, normalizeEmail(email))
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.PasswordHash, &user.Phone, &user.Bio, &user.Position,
		&user.Address.Country, &user.Address.City, &user.Address.State,
		&user.Address.PostalCode, &user.Address.TaxID,
		&user.ProfileImage, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser creates a new account, hashing the password. The existence
// check is a fast path only; the UNIQUE index on email settles races.
func (s *UserService) CreateUser(p CreateUserParams) (models.User, error) {
	email := normalizeEmail(p.Email)

	var count int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return models.User{}, err
	}
	if count > 0 {
		return models.User{}, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Phone:        p.Phone,
		Bio:          p.Bio,
		Position:     p.Position,
		Address:      p.Address,
		ProfileImage: p.ProfileImage,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(`INSERT INTO users(id, first_name, last_name, email, password_hash,
		phone, bio, position,
		addr_country, addr_city, addr_state, addr_postal_code, addr_tax_id,
		profile_image, is_active, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Phone, user.Bio, user.Position,
		user.Address.Country, user.Address.City, user.Address.State,
		user.Address.PostalCode, user.Address.TaxID,
		user.ProfileImage, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a credential pair. A missing account, an
// inactive account and a wrong password are indistinguishable to the caller.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile updates the subset of profile fields that are provided.
// Nil pointers leave the stored value untouched.
func (s *UserService) UpdateProfile(id string, firstName, lastName, email *string) (models.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if firstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *firstName)
	}
	if lastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *lastName)
	}
	if email != nil {
		sets = append(sets, "email = ?")
		args = append(args, normalizeEmail(*email))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, ErrNotFound
	}

	return s.GetUserByID(id)
}

// UpdatePassword verifies the current password, then hashes and stores the
// new one.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	var storedHash string
	err := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id).Scan(&storedHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		string(hashedPassword), time.Now().UTC(), id)
	return err
}

// UpdateProfileImage points the account at a new stored image path.
func (s *UserService) UpdateProfileImage(id, imagePath string) (models.User, error) {
	res, err := s.db.Exec("UPDATE users SET profile_image = ?, updated_at = ? WHERE id = ?",
		imagePath, time.Now().UTC(), id)
	if err != nil {
		return models.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetUserByID(id)
}
