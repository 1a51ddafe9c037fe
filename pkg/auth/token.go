// Package auth verifies provider credentials before they are saved.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oddmeter/oddmeter/pkg/net"
)

const modelsPath = "/models"

type modelsPage struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// VerifyToken checks the token against the provider by listing the
// models visible to it. Returns the model count on success.
func VerifyToken(ctx context.Context, baseURL, token string) (int, error) {
	if baseURL == "" {
		return 0, errors.New("baseURL is required")
	}

	if token == "" {
		return 0, errors.New("token is required")
	}

	url := strings.TrimSuffix(baseURL, "/") + modelsPath
	client := net.GetOAuthClient(ctx, token)

	var page modelsPage
	if err := net.GetJSON(ctx, client, url, &page); err != nil {
		return 0, fmt.Errorf("verifying token against %s: %w", url, err)
	}

	if len(page.Data) == 0 {
		return 0, errors.New("token accepted but no models are visible")
	}

	return len(page.Data), nil
}
