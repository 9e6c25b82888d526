package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndCheckPassword(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("correct horse battery staple"))

	assert.True(t, user.CheckPassword("correct horse battery staple"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.False(t, user.CheckPassword(""))
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)
}

func TestTempPassword(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("regular-pw"))
	require.NoError(t, user.SetTempPassword("temp-pw", 24))

	assert.True(t, user.MustChangePassword)
	require.NotNil(t, user.TempPasswordExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *user.TempPasswordExpiresAt, time.Minute)

	// Both credentials work while the temp password is live.
	assert.True(t, user.CheckPassword("temp-pw"))
	assert.True(t, user.CheckPassword("regular-pw"))

	// An expired temp password stops working; the regular one does not.
	expired := time.Now().Add(-time.Hour)
	user.TempPasswordExpiresAt = &expired
	assert.False(t, user.CheckPassword("temp-pw"))
	assert.True(t, user.CheckPassword("regular-pw"))
}

func TestSetPasswordClearsTempCredential(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("regular-pw"))
	require.NoError(t, user.SetTempPassword("temp-pw", 24))

	require.NoError(t, user.SetPassword("new-pw"))
	assert.Nil(t, user.TempPasswordHash)
	assert.Nil(t, user.TempPasswordExpiresAt)
	assert.False(t, user.MustChangePassword)
	assert.False(t, user.CheckPassword("temp-pw"))
	assert.True(t, user.CheckPassword("new-pw"))
}
