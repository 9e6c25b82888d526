package services_test

import (
	"testing"

	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	app, db := newTestApp(t)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/register", "",
		fiber.Map{"username": "alice", "email": "alice@example.com", "password": "hunter22"}, &body)
	require.Equal(t, fiber.StatusCreated, status)

	status = doRequest(t, app, "POST", "/register", "",
		fiber.Map{"username": "alice", "email": "other@example.com", "password": "hunter22"}, &body)
	require.Equal(t, fiber.StatusConflict, status)
	assertErrorBody(t, body, "Username already exists")

	status = doRequest(t, app, "POST", "/register", "",
		fiber.Map{"username": "alice2", "email": "alice@example.com", "password": "hunter22"}, &body)
	require.Equal(t, fiber.StatusConflict, status)
	assertErrorBody(t, body, "Email already exists")

	status = doRequest(t, app, "POST", "/login", "",
		fiber.Map{"username": "alice", "password": "hunter22"}, &body)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.NotNil(t, user.LastLogin)

	status = doRequest(t, app, "POST", "/login", "",
		fiber.Map{"username": "alice", "password": "wrong"}, &body)
	require.Equal(t, fiber.StatusUnauthorized, status)
	assertErrorBody(t, body, "Invalid username or password")
}

func TestRefreshToken(t *testing.T) {
	app, db := newTestApp(t)
	createUser(t, db, "alice", false)

	var login map[string]interface{}
	status := doRequest(t, app, "POST", "/login", "",
		fiber.Map{"username": "alice", "password": "password123"}, &login)
	require.Equal(t, fiber.StatusOK, status)

	accessToken := login["access_token"].(string)
	refreshToken := login["refresh_token"].(string)

	// The refresh endpoint takes only refresh tokens.
	var body map[string]interface{}
	status = doRequest(t, app, "POST", "/refresh", accessToken, nil, &body)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status = doRequest(t, app, "POST", "/refresh", refreshToken, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, body["access_token"])

	// And a refresh token cannot be used as an access token.
	status = doRequest(t, app, "GET", "/check-auth", refreshToken, nil, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestChangePassword(t *testing.T) {
	app, db := newTestApp(t)
	user, token := createUser(t, db, "alice", false)
	require.NoError(t, user.SetTempPassword("temp-pw-123", 24))
	require.NoError(t, db.Save(user).Error)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/change-password", token,
		fiber.Map{"current_password": "nope", "new_password": "brand-new-pw"}, &body)
	require.Equal(t, fiber.StatusUnauthorized, status)
	assertErrorBody(t, body, "Current password is incorrect")

	// The temporary password counts as the current password.
	status = doRequest(t, app, "POST", "/change-password", token,
		fiber.Map{"current_password": "temp-pw-123", "new_password": "brand-new-pw"}, &body)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, body["access_token"])

	// Changing the password clears the temporary credential.
	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Nil(t, fresh.TempPasswordHash)
	assert.False(t, fresh.MustChangePassword)
	assert.True(t, fresh.CheckPassword("brand-new-pw"))
	assert.False(t, fresh.CheckPassword("temp-pw-123"))
}

func TestCheckAuth(t *testing.T) {
	app, db := newTestApp(t)
	user, token := createUser(t, db, "alice", false)

	var body map[string]interface{}
	status := doRequest(t, app, "GET", "/check-auth", token, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["authenticated"])

	// A pending forced password change is surfaced through the user summary,
	// which is read from the database, not from the token.
	require.NoError(t, user.SetTempPassword("temp-pw-456", 24))
	require.NoError(t, db.Save(user).Error)
	status = doRequest(t, app, "GET", "/check-auth", token, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	summary := body["user"].(map[string]interface{})
	assert.Equal(t, true, summary["must_change_password"])

	status = doRequest(t, app, "GET", "/check-auth", "", nil, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status = doRequest(t, app, "GET", "/check-auth", "not-a-token", nil, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}
