package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MatchService struct {
	DB *gorm.DB
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

type placementEntry struct {
	UserID    uint `json:"user_id"`
	Placement int  `json:"placement"`
}

type submitMatchRequest struct {
	GameID               uint             `json:"game_id"`
	Placements           []placementEntry `json:"placements"`
	StartTime            string           `json:"start_time"`
	EndTime              string           `json:"end_time"`
	NotesBigInteraction  string           `json:"notes_big_interaction"`
	NotesRulesDiscussion string           `json:"notes_rules_discussion"`
	NotesEndSummary      string           `json:"notes_end_summary"`
}

// parseMatchTime accepts "2006-01-02T15:04" with either a T or a space
// separator, with or without seconds.
func parseMatchTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	value = strings.Replace(value, " ", "T", 1)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid datetime format")
}

// SubmitMatch records the results of a played game.
//
// Preconditions, checked in order: the game exists and is Upcoming, it has at
// least 2 registrations, the placements are a permutation of 1..N, and the
// placement user set exactly equals the registered user set. On success the
// Match, its MatchPlayers, and the game's Completed status are written in one
// transaction; the match stays pending until a peer approves it.
func (s *MatchService) SubmitMatch(c *fiber.Ctx) error {
	submitterID := middleware.UserID(c)

	var req submitMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No input data provided"})
	}
	if req.GameID == 0 || req.Placements == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields (game_id, placements)"})
	}

	var game models.Game
	if err := s.DB.First(&game, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if msg := validateGameStatus(&game, models.GameStatusUpcoming); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if msg, err := validateGameRegistrations(s.DB, game.ID, 2); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	} else if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	if len(req.Placements) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "'placements' must be a list with at least 2 participants"})
	}
	playerCount := len(req.Placements)

	var submitter models.User
	if err := s.DB.First(&submitter, submitterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Submitter user (from token) not found"})
	}

	var registrations []models.GameRegistration
	if err := s.DB.Where("game_id = ?", game.ID).Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	regByUser := make(map[uint]*models.GameRegistration, len(registrations))
	for i := range registrations {
		regByUser[registrations[i].UserID] = &registrations[i]
	}

	seenUsers := make(map[uint]bool, playerCount)
	seenPlacements := make(map[int]bool, playerCount)
	for _, p := range req.Placements {
		if p.UserID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid placement entry format"})
		}
		if p.Placement < 1 || p.Placement > playerCount {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Invalid placement value %d for user %d", p.Placement, p.UserID)})
		}
		if seenUsers[p.UserID] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Duplicate user ID %d in placements", p.UserID)})
		}
		if seenPlacements[p.Placement] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Duplicate placement value %d", p.Placement)})
		}
		if _, ok := regByUser[p.UserID]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("User ID %d was not registered for this game.", p.UserID)})
		}
		seenUsers[p.UserID] = true
		seenPlacements[p.Placement] = true
	}
	if len(regByUser) != len(seenUsers) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Placement data does not match registered players."})
	}

	startTime, err := parseMatchTime(req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid datetime format. Use YYYY-MM-DDTHH:MM or YYYY-MM-DD HH:MM"})
	}
	endTime, err := parseMatchTime(req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid datetime format. Use YYYY-MM-DDTHH:MM or YYYY-MM-DD HH:MM"})
	}

	gameID := game.ID
	match := models.Match{
		GameID:               &gameID,
		PlayerCount:          playerCount,
		Status:               models.MatchStatusPending,
		StartTime:            startTime,
		EndTime:              endTime,
		SubmittedByID:        submitterID,
		NotesBigInteraction:  req.NotesBigInteraction,
		NotesRulesDiscussion: req.NotesRulesDiscussion,
		NotesEndSummary:      req.NotesEndSummary,
	}

	// Match, players, and the game's status change commit together or not at
	// all; a failure anywhere rolls back everything.
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Re-check the status under the transaction; two concurrent submits
		// can still both pass the earlier check.
		var current models.Game
		if err := tx.First(&current, game.ID).Error; err != nil {
			return err
		}
		if current.Status != models.GameStatusUpcoming {
			return errGameNotUpcoming
		}

		if err := tx.Create(&match).Error; err != nil {
			return err
		}
		for _, p := range req.Placements {
			reg := regByUser[p.UserID]
			placement := p.Placement
			player := models.MatchPlayer{
				MatchID:       match.ID,
				UserID:        p.UserID,
				DeckID:        reg.DeckID,
				DeckVersionID: reg.DeckVersionID,
				Placement:     &placement,
			}
			if err := tx.Create(&player).Error; err != nil {
				return err
			}
		}
		return tx.Model(&current).Update("status", models.GameStatusCompleted).Error
	})
	if err != nil {
		if errors.Is(err, errGameNotUpcoming) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Game must be Upcoming"})
		}
		log.Printf("Error submitting game results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game result submission failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Game results submitted successfully",
		"match_id": match.ID,
	})
}

var errGameNotUpcoming = errors.New("game is not upcoming")

// GetMatches lists submitted results newest-first, optionally filtered by
// approval status.
func (s *MatchService) GetMatches(c *fiber.Ctx) error {
	query := s.DB.Preload("Submitter").Preload("Approver")
	if statusFilter := c.Query("status"); statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var matches []models.Match
	if err := query.Order("created_at DESC").Find(&matches).Error; err != nil {
		log.Printf("Error fetching game results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch game results"})
	}

	out := make([]fiber.Map, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		entry := fiber.Map{
			"match_id":     m.ID,
			"game_id":      m.GameID,
			"game_date":    nil,
			"status":       m.Status,
			"player_count": m.PlayerCount,
			"submitted_by": m.Submitter.Username,
			"created_at":   m.CreatedAt.UTC().Format(time.RFC3339),
			"approved_by":  nil,
			"approved_at":  nil,
		}
		if m.GameID != nil {
			var game models.Game
			if err := s.DB.First(&game, *m.GameID).Error; err == nil {
				entry["game_date"] = game.GameDate.Format(gameDateLayout)
			}
		}
		if m.ApprovedByID != nil && m.Approver != nil {
			entry["approved_by"] = m.Approver.Username
		}
		if m.ApprovedAt != nil {
			entry["approved_at"] = m.ApprovedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// ApproveMatch finalizes submitted results. Self-approval is forbidden: the
// approver must be a different user than the submitter. Approval is terminal;
// a second approval attempt fails because the match is no longer pending.
func (s *MatchService) ApproveMatch(c *fiber.Ctx) error {
	approverID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if msg := validateMatchStatus(&match, models.MatchStatusPending); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	var approver models.User
	if err := s.DB.First(&approver, approverID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Approver user (from token) not found"})
	}
	if match.SubmittedByID == approverID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot approve your own submitted match"})
	}

	var req struct {
		ApprovalNotes string `json:"approval_notes"`
	}
	_ = c.BodyParser(&req)

	now := time.Now().UTC()
	match.Status = models.MatchStatusApproved
	match.ApprovedByID = &approverID
	match.ApprovedAt = &now
	match.ApprovalNotes = req.ApprovalNotes

	if err := s.DB.Save(&match).Error; err != nil {
		log.Printf("Error approving game results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game result approval failed"})
	}
	return c.JSON(fiber.Map{
		"message":  "Game results approved successfully",
		"match_id": match.ID,
		"status":   match.Status,
	})
}

// RejectMatch records a rejection without deleting the match. The match stays
// pending with a rejection note and cleared approver fields, and the parent
// game is reset to Upcoming so corrected results can be resubmitted.
func (s *MatchService) RejectMatch(c *fiber.Ctx) error {
	rejectorID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if msg := validateMatchStatus(&match, models.MatchStatusPending); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	var rejector models.User
	if err := s.DB.First(&rejector, rejectorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rejector user (from token) not found"})
	}

	var req struct {
		ApprovalNotes string `json:"approval_notes"`
	}
	_ = c.BodyParser(&req)

	notes := req.ApprovalNotes
	if notes == "" {
		notes = "No reason provided."
	}

	match.Status = models.MatchStatusPending
	match.ApprovedByID = nil
	match.ApprovedAt = nil
	match.ApprovalNotes = fmt.Sprintf("Rejected by %s: %s", rejector.Username, notes)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&match).Updates(map[string]interface{}{
			"status":         match.Status,
			"approved_by_id": nil,
			"approved_at":    nil,
			"approval_notes": match.ApprovalNotes,
		}).Error; err != nil {
			return err
		}
		if match.GameID != nil {
			var game models.Game
			if err := tx.First(&game, *match.GameID).Error; err == nil {
				if err := tx.Model(&game).Update("status", models.GameStatusUpcoming).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error rejecting game results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game result rejection failed"})
	}
	return c.JSON(fiber.Map{
		"message":  "Game result rejection noted. Kept as pending.",
		"match_id": match.ID,
	})
}

// GetMatchDetails returns the full denormalized results for a match.
func (s *MatchService) GetMatchDetails(c *fiber.Ctx) error {
	var match models.Match
	err := s.DB.Preload("Submitter").Preload("Approver").
		First(&match, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var players []models.MatchPlayer
	if err := s.DB.Preload("User").Preload("Deck").Preload("DeckVersion").
		Where("match_id = ?", match.ID).
		Order("placement ASC").
		Find(&players).Error; err != nil {
		log.Printf("Error fetching match players for match %d: %v", match.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch match details"})
	}

	playerDetails := make([]fiber.Map, 0, len(players))
	for i := range players {
		p := &players[i]
		detail := fiber.Map{
			"user_id":         p.UserID,
			"username":        p.User.Username,
			"deck_id":         p.DeckID,
			"deck_name":       p.Deck.Name,
			"commander":       p.Deck.Commander,
			"placement":       p.Placement,
			"deck_version_id": p.DeckVersionID,
		}
		if p.DeckVersion != nil {
			detail["version_number"] = p.DeckVersion.VersionNumber
			detail["version_notes"] = p.DeckVersion.Notes
		}
		playerDetails = append(playerDetails, detail)
	}

	body := fiber.Map{
		"match_id":               match.ID,
		"game_id":                match.GameID,
		"game_date":              nil,
		"status":                 match.Status,
		"player_count":           match.PlayerCount,
		"submitted_by_id":        match.SubmittedByID,
		"submitted_by_username":  match.Submitter.Username,
		"created_at":             match.CreatedAt.UTC().Format(time.RFC3339),
		"approved_by_id":         match.ApprovedByID,
		"approved_by_username":   nil,
		"approved_at":            nil,
		"approval_notes":         match.ApprovalNotes,
		"start_time":             nil,
		"end_time":               nil,
		"notes_big_interaction":  match.NotesBigInteraction,
		"notes_rules_discussion": match.NotesRulesDiscussion,
		"notes_end_summary":      match.NotesEndSummary,
		"players":                playerDetails,
	}
	if match.GameID != nil {
		var game models.Game
		if err := s.DB.First(&game, *match.GameID).Error; err == nil {
			body["game_date"] = game.GameDate.Format(gameDateLayout)
		}
	}
	if match.Approver != nil {
		body["approved_by_username"] = match.Approver.Username
	}
	if match.ApprovedAt != nil {
		body["approved_at"] = match.ApprovedAt.UTC().Format(time.RFC3339)
	}
	if match.StartTime != nil {
		body["start_time"] = match.StartTime.UTC().Format(time.RFC3339)
	}
	if match.EndTime != nil {
		body["end_time"] = match.EndTime.UTC().Format(time.RFC3339)
	}
	return c.JSON(body)
}
