package config

import (
	"fmt"
	"strings"
)

// MissingEnvError reports required delivery settings that were not provided.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing environment variables: %s", strings.Join(e.Names, ", "))
}

// Missing returns the env names of the required settings that are empty.
func (c SMTPConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.User) == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if strings.TrimSpace(c.Recipient) == "" {
		missing = append(missing, "RECIPIENT_EMAIL")
	}
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "EMAIL_HOST")
	}
	if c.Password == "" {
		missing = append(missing, "EMAIL_PASSWORD")
	}
	return missing
}

// Validate returns a *MissingEnvError when any required setting is absent.
func (c SMTPConfig) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return &MissingEnvError{Names: missing}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid EMAIL_PORT %d", c.Port)
	}
	return nil
}

// ValidateFor checks the settings the given provider needs. The Gmail API
// authenticates with its own credentials, so only the addresses are required.
func (c SMTPConfig) ValidateFor(provider string) error {
	if provider != "gmail" {
		return c.Validate()
	}

	var missing []string
	for _, name := range c.Missing() {
		if name == "EMAIL_USER" || name == "RECIPIENT_EMAIL" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingEnvError{Names: missing}
	}
	return nil
}
