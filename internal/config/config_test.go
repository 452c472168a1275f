package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/auth-server/internal/model"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, false, cfg.HTTP.EnableHTTPS)
	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Equal(t, false, cfg.GRPC.EnableTLS)
	assert.Equal(t, 10*time.Second, cfg.GRPC.HealthInterval)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Database.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 100*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.EmailVerifyTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.ForgotPasswordTTL)
	assert.Equal(t, "argon2id", cfg.KDF.Algorithm)
	assert.Equal(t, 256, cfg.Notify.QueueSize)
	assert.Equal(t, false, cfg.OTEL.Enabled)
	assert.Equal(t, "auth-server", cfg.OTEL.ServiceName)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name: "log override",
			envVars: map[string]string{
				"LOG_LEVEL":  "-4",
				"LOG_FORMAT": "json",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.Log.Level)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name: "http config override",
			envVars: map[string]string{
				"HTTP_PORT":                  "9090",
				"HTTP_ENABLE_HTTPS":          "true",
				"HTTP_CERT_FILE_NAME":        "custom.pem",
				"HTTP_PRIVATE_KEY_FILE_NAME": "custom-key.pem",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "9090", cfg.HTTP.Port)
				assert.Equal(t, true, cfg.HTTP.EnableHTTPS)
				assert.Equal(t, "custom.pem", cfg.HTTP.CertFileName)
				assert.Equal(t, "custom-key.pem", cfg.HTTP.PrivateKeyFileName)
			},
		},
		{
			name: "grpc config override",
			envVars: map[string]string{
				"GRPC_PORT":            "6000",
				"GRPC_ENABLE_TLS":      "true",
				"GRPC_HEALTH_INTERVAL": "3s",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "6000", cfg.GRPC.Port)
				assert.Equal(t, true, cfg.GRPC.EnableTLS)
				assert.Equal(t, 3*time.Second, cfg.GRPC.HealthInterval)
			},
		},
		{
			name: "sqlite driver",
			envVars: map[string]string{
				"DATABASE_DRIVER":         "sqlite",
				"DATABASE_SQLITE_PATH":    "/var/lib/auth/auth.db",
				"DATABASE_SWEEP_INTERVAL": "30s",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, DriverSQLite, cfg.Database.Driver)
				assert.Equal(t, "/var/lib/auth/auth.db", cfg.Database.SQLitePath)
				assert.Equal(t, 30*time.Second, cfg.Database.SweepInterval)
			},
		},
		{
			name: "jwt config override",
			envVars: map[string]string{
				"JWT_ACCESS_SECRET": "another-access-secret",
				"JWT_ACCESS_TTL":    "5m",
				"JWT_REFRESH_TTL":   "720h",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "another-access-secret", cfg.JWT.Secrets()[model.TokenKindAccess])
				assert.Equal(t, 5*time.Minute, cfg.JWT.TTLs()[model.TokenKindAccess])
				assert.Equal(t, 720*time.Hour, cfg.JWT.TTLs()[model.TokenKindRefresh])
			},
		},
		{
			name: "kdf config override",
			envVars: map[string]string{
				"KDF_ALGORITHM":   "bcrypt",
				"KDF_TIME":        "2",
				"KDF_MEM":         "128000",
				"KDF_PAR":         "2",
				"KDF_BCRYPT_COST": "12",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "bcrypt", cfg.KDF.Algorithm)
				assert.Equal(t, uint32(2), cfg.KDF.Time)
				assert.Equal(t, uint32(128000), cfg.KDF.MemKiB)
				assert.Equal(t, uint8(2), cfg.KDF.Par)
				assert.Equal(t, 12, cfg.KDF.BcryptCost)
			},
		},
		{
			name: "notify and otel override",
			envVars: map[string]string{
				"NOTIFY_VERIFY_EMAIL_URL":   "https://app.example.com/verify",
				"NOTIFY_RESET_PASSWORD_URL": "https://app.example.com/reset",
				"OTEL_ENABLED":              "true",
				"OTEL_ENDPOINT":             "http://collector:4318",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "https://app.example.com/verify", cfg.Notify.VerifyEmailURL)
				assert.Equal(t, "https://app.example.com/reset", cfg.Notify.ResetPasswordURL)
				assert.Equal(t, true, cfg.OTEL.Enabled)
				assert.Equal(t, "http://collector:4318", cfg.OTEL.Endpoint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)

			tt.expected(cfg)
		})
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
	}{
		{
			name: "shared secret",
			envVars: map[string]string{
				"JWT_ACCESS_SECRET":  "same",
				"JWT_REFRESH_SECRET": "same",
			},
			wantErr: "access and refresh tokens share a secret",
		},
		{
			name:    "non-positive ttl",
			envVars: map[string]string{"JWT_FORGOT_PASSWORD_TTL": "0s"},
			wantErr: "forgot_password token TTL must be positive",
		},
		{
			name:    "unknown driver",
			envVars: map[string]string{"DATABASE_DRIVER": "mysql"},
			wantErr: `unknown DATABASE_DRIVER "mysql"`,
		},
		{
			name:    "bad duration",
			envVars: map[string]string{"JWT_ACCESS_TTL": "soon"},
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_EmptySecret(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	cfg.JWT.RefreshSecret = ""
	cfg.Notify.QueueSize = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh token secret is empty")
	assert.Contains(t, err.Error(), "NOTIFY_QUEUE_SIZE must be positive")
}
