package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "0 2 * * *", cfg.SyncSchedule)
	assert.Equal(t, 10000, cfg.CodeforcesSubmissionCount)
	assert.Equal(t, 7*24*time.Hour, cfg.InactivityThreshold)
	assert.Equal(t, 24*time.Hour, cfg.ReminderCooldown)
	assert.Equal(t, 30*time.Minute, cfg.SyncLockTTL)
	assert.Equal(t, 20, cfg.SyncRunLogSize)
	assert.False(t, cfg.MailConfigured())
	assert.True(t, cfg.UsesDefaultJWTSecret())
	assert.Contains(t, cfg.DBConnStr, "dbname=tle_tracker")
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/cf?sslmode=disable")
	t.Setenv("PUBLIC_BASE_URL", "https://tracker.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("INACTIVITY_DAYS", "10")
	t.Setenv("SYNC_LOCK_TTL", "45m")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("MAIL_DRIVER", "sendgrid")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	t.Setenv("MAIL_FROM", "coach@example.com")
	t.Setenv("JWT_SECRET", "rotated-secret")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@db:5432/cf?sslmode=disable", cfg.DBConnStr)
	assert.Equal(t, "https://tracker.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 10*24*time.Hour, cfg.InactivityThreshold)
	assert.Equal(t, 45*time.Minute, cfg.SyncLockTTL)
	assert.True(t, cfg.MailConfigured())
	assert.False(t, cfg.UsesDefaultJWTSecret())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"store driver": {"STORE_DRIVER": "mongo"},
		"mail driver":  {"MAIL_DRIVER": "smtp"},
		"timezone":     {"TIMEZONE": "Mars/Olympus"},
		"concurrency":  {"SYNC_CONCURRENCY": 0},
		"count":        {"CODEFORCES_SUBMISSION_COUNT": -1},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			for k, val := range overrides {
				v.Set(k, val)
			}
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestMailConfigured(t *testing.T) {
	assert.True(t, (&Config{MailDriver: MailDriverConsole}).MailConfigured())
	assert.False(t, (&Config{MailDriver: MailDriverSendGrid, SendGridAPIKey: "k"}).MailConfigured())
	assert.True(t, (&Config{MailDriver: MailDriverSendGrid, SendGridAPIKey: "k", MailFrom: "a@b.c"}).MailConfigured())
}


func TestUsesDefaultJWTSecret(t *testing.T) {
	assert.True(t, (&Config{JWTKey: []byte(DefaultJWTSecret)}).UsesDefaultJWTSecret())
	assert.False(t, (&Config{JWTKey: []byte("s3cr3t-from-env")}).UsesDefaultJWTSecret())
}
