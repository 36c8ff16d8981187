// Package config reads application settings from viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds everything main needs to assemble the app.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	// RabbitMQURL may be empty, which disables marketplace events.
	RabbitMQURL string

	AIAPIKey           string
	AIBaseURL          string
	AIModel            string
	AIStructuredOutput bool

	NearbyRadiusKm float64
	UPIPayeeName   string
}

// SetDefaults registers default values and enables environment lookups.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "edumarket.db")
	v.SetDefault("JWT_SECRET", "change_me_in_production")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("AI_MODEL", "gemini-2.0-flash")
	v.SetDefault("AI_STRUCTURED_OUTPUT", true)
	v.SetDefault("NEARBY_RADIUS_KM", 100.0)
	v.SetDefault("UPI_PAYEE_NAME", "EduMarket")
	v.AutomaticEnv()
}

// Load reads the current values out of v.
func Load(v *viper.Viper) Config {
	return Config{
		AppPort:            v.GetString("APP_PORT"),
		DatabaseDriver:     v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		AIAPIKey:           v.GetString("AI_API_KEY"),
		AIBaseURL:          v.GetString("AI_BASE_URL"),
		AIModel:            v.GetString("AI_MODEL"),
		AIStructuredOutput: v.GetBool("AI_STRUCTURED_OUTPUT"),
		NearbyRadiusKm:     v.GetFloat64("NEARBY_RADIUS_KM"),
		UPIPayeeName:       v.GetString("UPI_PAYEE_NAME"),
	}
}
