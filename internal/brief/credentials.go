package brief

import (
	"fmt"
	"os"
	"strings"
)

// DefaultKeyEnvVar is consulted when the settings file carries no API key.
const DefaultKeyEnvVar = "ANTHROPIC_API_KEY"

// CredentialChain resolves the completion-service API key with a fixed
// fallback order: explicit config value, then environment variable, then a
// local key file. Resolution happens once at start-up and fails fast when
// nothing resolves.
type CredentialChain struct {
	ConfigValue string
	EnvVar      string
	KeyFile     string
}

// Resolve walks the chain and returns the first non-empty key.
func (c CredentialChain) Resolve() (string, error) {
	if c.ConfigValue != "" {
		return c.ConfigValue, nil
	}

	envVar := c.EnvVar
	if envVar == "" {
		envVar = DefaultKeyEnvVar
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	if c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err == nil {
			if key := strings.TrimSpace(string(data)); key != "" {
				return key, nil
			}
		}
	}

	return "", fmt.Errorf("no API key found: set brief.api_key in settings, export %s, or create %s", envVar, c.KeyFile)
}
