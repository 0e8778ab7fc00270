package services_test

import (
	"database/sql"
	"testing"

	"github.com/huxley-dev/account-be/internal/database"
	"github.com/huxley-dev/account-be/internal/models"
	"github.com/huxley-dev/account-be/internal/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// One connection, or each pool conn would see its own in-memory DB.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func adaParams() services.CreateUserParams {
	return services.CreateUserParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "Secret1",
		Bio:       "Analyst",
		Address:   models.Address{City: "London", Country: "UK"},
	}
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db)

	user, err := svc.CreateUser(adaParams())
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Empty(t, user.PasswordHash, "hash must not leave the store layer")
	require.True(t, user.IsActive)
	require.Equal(t, "London", user.Address.City)

	// The persisted password must be a bcrypt hash of the input.
	var storedHash string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&storedHash))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("Secret1")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	_, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	again := adaParams()
	again.FirstName = "Other"
	again.Email = "ADA@Example.com" // same address after normalization
	_, err = svc.CreateUser(again)
	require.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestAuthenticateUser(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db)

	created, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	user, err := svc.AuthenticateUser("Ada@Example.com", "Secret1")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	_, err = svc.AuthenticateUser("ada@example.com", "wrong")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.AuthenticateUser("nobody@example.com", "Secret1")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db)

	created, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	_, err = db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", created.ID)
	require.NoError(t, err)

	_, err = svc.AuthenticateUser("ada@example.com", "Secret1")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	created, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	email := "Countess@Example.com"
	updated, err := svc.UpdateProfile(created.ID, nil, nil, &email)
	require.NoError(t, err)
	require.Equal(t, "countess@example.com", updated.Email)
	require.Equal(t, "Ada", updated.FirstName, "absent fields stay untouched")

	first := "Augusta"
	updated, err = svc.UpdateProfile(created.ID, &first, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Augusta", updated.FirstName)
	require.Equal(t, "countess@example.com", updated.Email)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	_, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	other := adaParams()
	other.Email = "grace@example.com"
	created, err := svc.CreateUser(other)
	require.NoError(t, err)

	taken := "ada@example.com"
	_, err = svc.UpdateProfile(created.ID, nil, nil, &taken)
	require.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	name := "Ghost"
	_, err := svc.UpdateProfile("no-such-id", &name, nil, nil)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db)

	created, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	err = svc.UpdatePassword(created.ID, "not-the-password", "NewPass2")
	require.ErrorIs(t, err, services.ErrWrongPassword)

	// The stored credential is unchanged after a rejected attempt.
	_, err = svc.AuthenticateUser("ada@example.com", "Secret1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(created.ID, "Secret1", "NewPass2"))

	_, err = svc.AuthenticateUser("ada@example.com", "Secret1")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = svc.AuthenticateUser("ada@example.com", "NewPass2")
	require.NoError(t, err)
}

func TestUpdateProfileImage(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	created, err := svc.CreateUser(adaParams())
	require.NoError(t, err)

	updated, err := svc.UpdateProfileImage(created.ID, "/uploads/profiles/abc.png")
	require.NoError(t, err)
	require.Equal(t, "/uploads/profiles/abc.png", updated.ProfileImage)

	_, err = svc.UpdateProfileImage("no-such-id", "/uploads/profiles/abc.png")
	require.ErrorIs(t, err, services.ErrNotFound)
}
