package service

import (
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/internal/repository"
	"excel_interview_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		name TEXT, email TEXT UNIQUE, password TEXT, role TEXT,
		disabled NUMERIC, last_login DATETIME, last_seen DATETIME
	)`).Error)

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour

	return NewAuthService(repository.NewUserRepository(db), cfg), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user := &model.User{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
		Role:     model.Candidate,
	}
	require.NoError(t, svc.Register(user))
	// Stored password must be a bcrypt hash, never the plaintext.
	require.NotEqual(t, "hunter22", user.Password)

	token, err := svc.Login("ada@example.com", "hunter22")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, model.Candidate, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	first := &model.User{Name: "Ada", Email: "ada@example.com", Password: "pw"}
	require.NoError(t, svc.Register(first))

	dup := &model.User{Name: "Other", Email: "ada@example.com", Password: "pw2"}
	require.ErrorIs(t, svc.Register(dup), util.ErrEmailRegistered)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user := &model.User{Name: "Ada", Email: "ada@example.com", Password: "pw"}
	require.NoError(t, svc.Register(user))

	_, err := svc.Login("ada@example.com", "wrong")
	require.ErrorIs(t, err, util.ErrUserNotFound)

	_, err = svc.Login("nobody@example.com", "pw")
	require.ErrorIs(t, err, util.ErrUserNotFound)
}
