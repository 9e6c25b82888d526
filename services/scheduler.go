package services

import (
	"log"
	"time"

	"commander-league-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartTempPasswordSweeper clears expired temporary credentials hourly so a
// stale reset cannot be used and must_change_password does not linger after
// the window closes.
func (s *AuthService) StartTempPasswordSweeper() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			now := time.Now().UTC()
			result := s.DB.Model(&models.User{}).
				Where("temp_password_expires_at IS NOT NULL AND temp_password_expires_at <= ?", now).
				Updates(map[string]interface{}{
					"temp_password_hash":       nil,
					"temp_password_expires_at": nil,
					"must_change_password":     false,
				})
			if result.Error != nil {
				log.Printf("[Scheduler] DB error: %v", result.Error)
				return
			}
			if result.RowsAffected > 0 {
				log.Printf("[Scheduler] Cleared %d expired temporary passwords", result.RowsAffected)
			}
		}),
	)
}
