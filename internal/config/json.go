package config

import (
	"encoding/json"
	"os"

	"github.com/wisespend/authcore/internal/flagx"
	"github.com/wisespend/authcore/internal/timex"
)

// JsonConfig is the DTO used only for reading JSON configuration files.
// Interval fields use timex.Duration, which accepts both string values such
// as "15m" and integer nanoseconds. Pointer fields distinguish "absent"
// from zero values so the overlay only touches keys present in the file.
type JsonConfig struct {
	HTTPAddr     *string `json:"http_addr"`
	StoreBackend *string `json:"store_backend"`
	DatabaseDSN  *string `json:"database_dsn"`
	SQLitePath   *string `json:"sqlite_path"`
	SecretKey    *string `json:"secret_key"`

	KDFIterations         *int  `json:"kdf_iterations"`
	FallbackKDFIterations *int  `json:"fallback_kdf_iterations"`
	UseFallbackKDF        *bool `json:"use_fallback_kdf"`
	AllowInsecureRandom   *bool `json:"allow_insecure_random"`

	SessionTimeout         *timex.Duration `json:"session_timeout"`
	SessionRenewalInterval *timex.Duration `json:"session_renewal_interval"`

	MaxLoginAttempts *int            `json:"max_login_attempts"`
	LockoutDuration  *timex.Duration `json:"lockout_duration"`

	MinPasswordLength *int  `json:"min_password_length"`
	RequireUppercase  *bool `json:"require_uppercase"`
	RequireLowercase  *bool `json:"require_lowercase"`
	RequireNumbers    *bool `json:"require_numbers"`
	RequireSpecial    *bool `json:"require_special"`

	UnknownUserDelay *timex.Duration `json:"unknown_user_delay"`
}

// parseJson overlays values from the JSON file named by the -c/-config
// flags onto config. When no file is named, nothing happens. An unreadable
// or invalid file panics: a half-applied configuration is worse than a
// failed start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&config.HTTPAddr, c.HTTPAddr)
	applyString(&config.StoreBackend, c.StoreBackend)
	applyString(&config.DatabaseDSN, c.DatabaseDSN)
	applyString(&config.SQLitePath, c.SQLitePath)
	applyString(&config.SecretKey, c.SecretKey)

	applyInt(&config.KDFIterations, c.KDFIterations)
	applyInt(&config.FallbackKDFIterations, c.FallbackKDFIterations)
	applyBool(&config.UseFallbackKDF, c.UseFallbackKDF)
	applyBool(&config.AllowInsecureRandom, c.AllowInsecureRandom)

	if c.SessionTimeout != nil {
		config.SessionTimeout = c.SessionTimeout.Duration
	}
	if c.SessionRenewalInterval != nil {
		config.SessionRenewalInterval = c.SessionRenewalInterval.Duration
	}

	applyInt(&config.MaxLoginAttempts, c.MaxLoginAttempts)
	if c.LockoutDuration != nil {
		config.LockoutDuration = c.LockoutDuration.Duration
	}

	applyInt(&config.MinPasswordLength, c.MinPasswordLength)
	applyBool(&config.RequireUppercase, c.RequireUppercase)
	applyBool(&config.RequireLowercase, c.RequireLowercase)
	applyBool(&config.RequireNumbers, c.RequireNumbers)
	applyBool(&config.RequireSpecial, c.RequireSpecial)

	if c.UnknownUserDelay != nil {
		config.UnknownUserDelay = c.UnknownUserDelay.Duration
	}
}
