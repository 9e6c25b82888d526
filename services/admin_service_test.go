package services_test

import (
	"fmt"
	"testing"

	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminGamePath(gameID uint, suffix string) string {
	path := fmt.Sprintf("/admin/games/%d", gameID)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app, db := newTestApp(t)
	_, token := createUser(t, db, "alice", false)

	var body map[string]interface{}
	status := doRequest(t, app, "GET", "/admin/users", token, nil, &body)
	require.Equal(t, fiber.StatusForbidden, status)
	assertErrorBody(t, body, "Admin access required")

	// /admin/check is reachable for everyone and reports the flag.
	status = doRequest(t, app, "GET", "/admin/check", token, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["is_admin"])
}

func TestDeleteGameRequiresReason(t *testing.T) {
	app, db := newTestApp(t)
	_, adminToken := createUser(t, db, "admin", true)
	game := createGame(t, db, "2026-09-05", models.GameStatusUpcoming)

	var body map[string]interface{}
	status := doRequest(t, app, "DELETE", adminGamePath(game.ID, ""), adminToken, fiber.Map{}, &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Reason is required for deletion")
}

func TestDeleteAndRestoreGame(t *testing.T) {
	app, db := newTestApp(t)
	admin, adminToken := createUser(t, db, "admin", true)
	game := createGame(t, db, "2026-09-05", models.GameStatusUpcoming)

	var body map[string]interface{}
	status := doRequest(t, app, "DELETE", adminGamePath(game.ID, ""), adminToken,
		fiber.Map{"reason": "duplicate event"}, &body)
	require.Equal(t, fiber.StatusOK, status)

	// Soft delete: gone from the default scope, present unscoped.
	var scoped models.Game
	require.Error(t, db.First(&scoped, game.ID).Error)
	var unscoped models.Game
	require.NoError(t, db.Unscoped().First(&unscoped, game.ID).Error)
	require.NotNil(t, unscoped.DeletedByID)
	assert.Equal(t, admin.ID, *unscoped.DeletedByID)
	assert.Equal(t, string(models.AdminActionGameDelete), unscoped.LastAdminAction)

	// Deleting twice is rejected.
	status = doRequest(t, app, "DELETE", adminGamePath(game.ID, ""), adminToken,
		fiber.Map{"reason": "again"}, &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Game is already deleted")

	// Deleted games listing.
	var deleted []map[string]interface{}
	status = doRequest(t, app, "GET", "/admin/games/deleted", adminToken, nil, &deleted)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, deleted, 1)
	assert.Equal(t, "2026-09-05", deleted[0]["game_date"])

	status = doRequest(t, app, "POST", adminGamePath(game.ID, "restore"), adminToken,
		fiber.Map{"reason": "was not a duplicate"}, &body)
	require.Equal(t, fiber.StatusOK, status)

	require.NoError(t, db.First(&scoped, game.ID).Error)
	assert.Nil(t, scoped.DeletedByID)
	assert.Equal(t, string(models.AdminActionGameRestore), scoped.LastAdminAction)

	// Restoring a live game is rejected.
	status = doRequest(t, app, "POST", adminGamePath(game.ID, "restore"), adminToken,
		fiber.Map{"reason": "restore again"}, &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Game is not deleted")
}

func TestGameAuditLog(t *testing.T) {
	app, db := newTestApp(t)
	_, adminToken := createUser(t, db, "admin", true)
	game := createGame(t, db, "2026-09-05", models.GameStatusUpcoming)

	status := doRequest(t, app, "DELETE", adminGamePath(game.ID, ""), adminToken,
		fiber.Map{"reason": "duplicate event"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	status = doRequest(t, app, "POST", adminGamePath(game.ID, "restore"), adminToken,
		fiber.Map{"reason": "was fine"}, nil)
	require.Equal(t, fiber.StatusOK, status)

	var logs []map[string]interface{}
	status = doRequest(t, app, "GET", adminGamePath(game.ID, "audit-log"), adminToken, nil, &logs)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, logs, 2)

	// Newest first.
	assert.Equal(t, string(models.AdminActionGameRestore), logs[0]["action_type"])
	assert.Equal(t, string(models.AdminActionGameDelete), logs[1]["action_type"])
	assert.Equal(t, "was fine", logs[0]["reason"])

	// The restore entry's previous state carries the deletion snapshot.
	prev := logs[0]["previous_state"].(map[string]interface{})
	assert.NotNil(t, prev["deleted_at"])
	assert.Equal(t, string(models.AdminActionGameDelete), prev["last_admin_action"])
	newState := logs[0]["new_state"].(map[string]interface{})
	assert.Nil(t, newState["deleted_at"])

	admin := logs[0]["admin"].(map[string]interface{})
	assert.Equal(t, "admin", admin["username"])
}

func TestResetUserPassword(t *testing.T) {
	app, db := newTestApp(t)
	_, adminToken := createUser(t, db, "admin", true)
	otherAdmin, _ := createUser(t, db, "root", true)
	alice, _ := createUser(t, db, "alice", false)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", fmt.Sprintf("/admin/users/%d/reset-password", alice.ID), adminToken, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	tempPassword := body["temp_password"].(string)
	require.NotEmpty(t, tempPassword)
	require.NotNil(t, body["expires_at"])

	// The temp password logs in and forces a change.
	var login map[string]interface{}
	status = doRequest(t, app, "POST", "/login", "",
		fiber.Map{"username": "alice", "password": tempPassword}, &login)
	require.Equal(t, fiber.StatusOK, status)
	user := login["user"].(map[string]interface{})
	assert.Equal(t, true, user["must_change_password"])

	// The regular password still works too.
	status = doRequest(t, app, "POST", "/login", "",
		fiber.Map{"username": "alice", "password": "password123"}, nil)
	require.Equal(t, fiber.StatusOK, status)

	// Another admin's password cannot be reset.
	status = doRequest(t, app, "POST", fmt.Sprintf("/admin/users/%d/reset-password", otherAdmin.ID), adminToken, nil, &body)
	require.Equal(t, fiber.StatusForbidden, status)
	assertErrorBody(t, body, "Cannot reset another admin's password")
}

func TestToggleAdmin(t *testing.T) {
	app, db := newTestApp(t)
	admin, adminToken := createUser(t, db, "admin", true)
	alice, _ := createUser(t, db, "alice", false)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", fmt.Sprintf("/admin/users/%d/make-admin", alice.ID), adminToken, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["is_admin"])

	status = doRequest(t, app, "POST", fmt.Sprintf("/admin/users/%d/make-admin", alice.ID), adminToken, nil, &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["is_admin"])

	status = doRequest(t, app, "POST", fmt.Sprintf("/admin/users/%d/make-admin", admin.ID), adminToken, nil, &body)
	require.Equal(t, fiber.StatusForbidden, status)
	assertErrorBody(t, body, "Cannot modify your own admin status")
}
