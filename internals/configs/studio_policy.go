package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// StudioPolicy holds the booking knobs that differ per deployment.
type StudioPolicy struct {
	Timezone            string        `yaml:"timezone"`
	BulkMaxItems        int           `yaml:"bulk_max_items"`
	DepositPercent      int           `yaml:"deposit_percent"`
	PaymentValidityDays int           `yaml:"payment_validity_days"`
	SubmitGuardTTL      time.Duration `yaml:"submit_guard_ttl"`
	NotificationTopic   string        `yaml:"notification_topic"`
}

func DefaultStudioPolicy() StudioPolicy {
	return StudioPolicy{
		Timezone:            "UTC",
		BulkMaxItems:        20,
		DepositPercent:      50,
		PaymentValidityDays: 30,
		SubmitGuardTTL:      10 * time.Second,
		NotificationTopic:   "studio.notifications",
	}
}

var Policy = DefaultStudioPolicy()

// LoadStudioPolicy reads STUDIO_POLICY_FILE (optional) and applies env
// overrides on top. The result is stored in Policy.
func LoadStudioPolicy() (StudioPolicy, error) {
	p := DefaultStudioPolicy()

	if path := strings.TrimSpace(os.Getenv("STUDIO_POLICY_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read studio policy: %w", err)
		}
		if p, err = ParseStudioPolicy(raw); err != nil {
			return p, err
		}
	}

	if v := GetEnv("STUDIO_TIMEZONE"); v != "" {
		p.Timezone = v
	}
	p.BulkMaxItems = GetEnvInt("BULK_MAX_ITEMS", p.BulkMaxItems)
	p.DepositPercent = GetEnvInt("DEPOSIT_PERCENT", p.DepositPercent)
	p.PaymentValidityDays = GetEnvInt("PAYMENT_VALIDITY_DAYS", p.PaymentValidityDays)
	if v := GetEnv("SUBMIT_GUARD_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.SubmitGuardTTL = d
		}
	}
	if v := GetEnv("NOTIFICATION_TOPIC"); v != "" {
		p.NotificationTopic = v
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	Policy = p
	log.Info().
		Str("timezone", p.Timezone).
		Int("bulk_max_items", p.BulkMaxItems).
		Int("deposit_percent", p.DepositPercent).
		Msg("studio policy loaded")
	return p, nil
}

// ParseStudioPolicy decodes a YAML document over the defaults.
func ParseStudioPolicy(raw []byte) (StudioPolicy, error) {
	p := DefaultStudioPolicy()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse studio policy: %w", err)
	}
	return p, p.Validate()
}

func (p StudioPolicy) Validate() error {
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}
	if p.BulkMaxItems <= 0 {
		return fmt.Errorf("bulk_max_items must be positive")
	}
	if p.DepositPercent < 0 || p.DepositPercent > 100 {
		return fmt.Errorf("deposit_percent must be within 0..100")
	}
	if p.PaymentValidityDays <= 0 {
		return fmt.Errorf("payment_validity_days must be positive")
	}
	return nil
}
