package services_test

import (
	"fmt"
	"testing"

	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pod is a registered game with two players ready to submit results.
type pod struct {
	game  *models.Game
	alice *models.User
	bob   *models.User
	tokA  string
	tokB  string
}

func newPod(t *testing.T, app *fiber.App, db *gorm.DB) pod {
	t.Helper()
	alice, tokA := createUser(t, db, "alice", false)
	bob, tokB := createUser(t, db, "bob", false)
	game := createGame(t, db, "2026-09-05", models.GameStatusUpcoming)
	registerPlayer(t, db, game.ID, alice, createDeck(t, db, alice.ID, "Atraxa Superfriends"))
	registerPlayer(t, db, game.ID, bob, createDeck(t, db, bob.ID, "Krenko Goblins"))
	return pod{game: game, alice: alice, bob: bob, tokA: tokA, tokB: tokB}
}

func TestSubmitMatch(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, body["match_id"])

	var game models.Game
	require.NoError(t, db.First(&game, p.game.ID).Error)
	assert.Equal(t, models.GameStatusCompleted, game.Status)

	var match models.Match
	require.NoError(t, db.First(&match, uint(body["match_id"].(float64))).Error)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, p.alice.ID, match.SubmittedByID)
	assert.Equal(t, 2, match.PlayerCount)

	// MatchPlayers carry the deck version frozen at registration.
	var players []models.MatchPlayer
	require.NoError(t, db.Where("match_id = ?", match.ID).Find(&players).Error)
	require.Len(t, players, 2)
	for _, mp := range players {
		assert.NotNil(t, mp.DeckVersionID)
	}

	// The game is no longer Upcoming, so a second submission fails.
	status = doRequest(t, app, "POST", "/matches", p.tokB,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 2}, [2]uint{p.bob.ID, 1}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Game must be Upcoming")
}

func TestSubmitMatchPreconditions(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)
	carol, _ := createUser(t, db, "carol", false)

	var body map[string]interface{}

	status := doRequest(t, app, "POST", "/matches", p.tokA, fiber.Map{"placements": []fiber.Map{}}, &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Missing required fields (game_id, placements)")

	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(9999, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusNotFound, status)
	assertErrorBody(t, body, "Game not found")

	// Not enough placements.
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "'placements' must be a list with at least 2 participants")

	// Placement out of 1..N.
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 3}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, fmt.Sprintf("Invalid placement value 3 for user %d", p.bob.ID))

	// Duplicate placement.
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 1}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Duplicate placement value 1")

	// Duplicate user.
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.alice.ID, 2}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, fmt.Sprintf("Duplicate user ID %d in placements", p.alice.ID))

	// Unregistered player.
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{carol.ID, 2}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, fmt.Sprintf("User ID %d was not registered for this game.", carol.ID))

	// A game with fewer than 2 registrations cannot have results.
	small := createGame(t, db, "2026-09-12", models.GameStatusUpcoming)
	registerPlayer(t, db, small.ID, p.alice, mustDeck(t, db, p.alice.ID))
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(small.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Game must have at least 2 registered players")

	// Placements must cover every registered player.
	carolDeck := createDeck(t, db, carol.ID, "Yuriko Ninjas")
	registerPlayer(t, db, p.game.ID, carol, carolDeck)
	status = doRequest(t, app, "POST", "/matches", p.tokA, submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Placement data does not match registered players.")
}

func TestApproveMatch(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusCreated, status)
	matchID := uint(body["match_id"].(float64))

	// The submitter cannot approve their own match.
	status = doRequest(t, app, "PATCH", matchPath(matchID, "approve"), p.tokA, nil, &body)
	require.Equal(t, fiber.StatusForbidden, status)
	assertErrorBody(t, body, "Cannot approve your own submitted match")

	status = doRequest(t, app, "PATCH", matchPath(matchID, "approve"), p.tokB,
		fiber.Map{"approval_notes": "looked legit"}, &body)
	require.Equal(t, fiber.StatusOK, status)

	var match models.Match
	require.NoError(t, db.First(&match, matchID).Error)
	assert.Equal(t, models.MatchStatusApproved, match.Status)
	require.NotNil(t, match.ApprovedByID)
	assert.Equal(t, p.bob.ID, *match.ApprovedByID)
	assert.NotNil(t, match.ApprovedAt)
	assert.Equal(t, "looked legit", match.ApprovalNotes)

	// Approval is terminal.
	status = doRequest(t, app, "PATCH", matchPath(matchID, "approve"), p.tokB, nil, &body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assertErrorBody(t, body, "Match must be pending")
}

func TestRejectMatchKeepsPendingAndReopensGame(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusCreated, status)
	matchID := uint(body["match_id"].(float64))

	status = doRequest(t, app, "PATCH", matchPath(matchID, "reject"), p.tokB,
		fiber.Map{"approval_notes": "wrong placements"}, &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Game result rejection noted. Kept as pending.", body["message"])

	var match models.Match
	require.NoError(t, db.First(&match, matchID).Error)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Nil(t, match.ApprovedByID)
	assert.Nil(t, match.ApprovedAt)
	assert.Equal(t, "Rejected by bob: wrong placements", match.ApprovalNotes)

	// The game reopens so corrected results can be submitted.
	var game models.Game
	require.NoError(t, db.First(&game, p.game.ID).Error)
	assert.Equal(t, models.GameStatusUpcoming, game.Status)

	status = doRequest(t, app, "POST", "/matches", p.tokB,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 2}, [2]uint{p.bob.ID, 1}), nil)
	require.Equal(t, fiber.StatusCreated, status)
}

func TestRejectMatchDefaultReason(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusCreated, status)
	matchID := uint(body["match_id"].(float64))

	status = doRequest(t, app, "PATCH", matchPath(matchID, "reject"), p.tokB, nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var match models.Match
	require.NoError(t, db.First(&match, matchID).Error)
	assert.Equal(t, "Rejected by bob: No reason provided.", match.ApprovalNotes)
}

func TestGetMatchDetails(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA, fiber.Map{
		"game_id": p.game.ID,
		"placements": []fiber.Map{
			{"user_id": p.bob.ID, "placement": 1},
			{"user_id": p.alice.ID, "placement": 2},
		},
		"start_time":            "2026-09-05 18:30",
		"end_time":              "2026-09-05T21:05",
		"notes_big_interaction": "huge board wipe turn 6",
	}, &body)
	require.Equal(t, fiber.StatusCreated, status)
	matchID := uint(body["match_id"].(float64))

	var detail map[string]interface{}
	status = doRequest(t, app, "GET", matchPath(matchID, ""), p.tokA, nil, &detail)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "2026-09-05", detail["game_date"])
	assert.Equal(t, "alice", detail["submitted_by_username"])
	assert.Equal(t, "huge board wipe turn 6", detail["notes_big_interaction"])
	assert.NotNil(t, detail["start_time"])
	assert.NotNil(t, detail["end_time"])

	players := detail["players"].([]interface{})
	require.Len(t, players, 2)
	winner := players[0].(map[string]interface{})
	assert.Equal(t, "bob", winner["username"])
	assert.EqualValues(t, 1, winner["placement"])
}

func TestGetMatchesFilter(t *testing.T) {
	app, db := newTestApp(t)
	p := newPod(t, app, db)

	var body map[string]interface{}
	status := doRequest(t, app, "POST", "/matches", p.tokA,
		submitBody(p.game.ID, [2]uint{p.alice.ID, 1}, [2]uint{p.bob.ID, 2}), &body)
	require.Equal(t, fiber.StatusCreated, status)
	matchID := uint(body["match_id"].(float64))
	status = doRequest(t, app, "PATCH", matchPath(matchID, "approve"), p.tokB, nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var matches []map[string]interface{}
	status = doRequest(t, app, "GET", "/matches?status=approved", p.tokA, nil, &matches)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, matches, 1)
	assert.Equal(t, "approved", matches[0]["status"])
	assert.Equal(t, "bob", matches[0]["approved_by"])

	status = doRequest(t, app, "GET", "/matches?status=pending", p.tokA, nil, &matches)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, matches)
}

func mustDeck(t *testing.T, db *gorm.DB, userID uint) *models.Deck {
	t.Helper()
	var deck models.Deck
	require.NoError(t, db.Where("user_id = ?", userID).First(&deck).Error)
	return &deck
}
