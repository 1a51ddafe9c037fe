package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/oddmeter/oddmeter/pkg/auth"
	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	tokenFileName  = "api_token"
	keyringService = "oddmeter"
	keyringUser    = "api_token"
)

var (
	tokenEnvVars = []string{"ODDMETER_API_TOKEN", "OPENAI_API_KEY"}

	tokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Provider API token (optional, prompts when omitted)",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Verify and save the language model provider API token",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			tokenFlag,
			debugFlag,
		},
	}
)

func cmdAuth(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	token := strings.TrimSpace(c.String(tokenFlag.Name))
	if token == "" {
		fmt.Printf("Paste the API token for %s\n", cfg.Conf.BaseURL)
		fmt.Print("> ")
		if _, err := fmt.Scanln(&token); err != nil {
			return fmt.Errorf("reading token input: %w", err)
		}
		token = strings.TrimSpace(token)
	}

	if token == "" {
		return fmt.Errorf("no token provided")
	}

	count, err := auth.VerifyToken(context.Background(), cfg.Conf.BaseURL, token)
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	if err = saveToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Printf("Token verified (%d models visible) and saved\n", count)
	return nil
}

func saveToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(token)
	}

	// Clean up legacy file if it exists
	legacyPath := path.Join(getHomeDir(), tokenFileName)
	os.Remove(legacyPath)

	return nil
}

// getToken resolves the provider credential: environment first, then the
// OS keychain, then the legacy token file. A missing credential is an
// empty string, not an error; the provider client decides how to fail.
func getToken() string {
	for _, k := range tokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}

	// Try keychain first
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token
	}

	// Fall back to file
	token, err = getTokenFile()
	if err != nil || token == "" {
		return ""
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		legacyPath := path.Join(getHomeDir(), tokenFileName)
		os.Remove(legacyPath)
	}

	return token
}

func saveTokenFile(token string) error {
	tokenPath := path.Join(getHomeDir(), tokenFileName)
	return os.WriteFile(tokenPath, []byte(token), 0600)
}

func getTokenFile() (string, error) {
	tokenPath := path.Join(getHomeDir(), tokenFileName)
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", tokenPath, err)
	}
	return strings.TrimSpace(string(b)), nil
}
