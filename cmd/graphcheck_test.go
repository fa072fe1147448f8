package cmd

import (
	"strings"
	"testing"
)

func TestGraphCheck_TokenEnvFallbackOrder(t *testing.T) {
	t.Setenv("META_USER_ACCESS_TOKEN", "")
	t.Setenv("META_ACCESS_TOKEN", "")
	t.Setenv("META_AD_ACCOUNT_ID", "123")

	err := graphCheckCmd.RunE(graphCheckCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "META_USER_ACCESS_TOKEN") {
		t.Fatalf("expected missing token error naming META_USER_ACCESS_TOKEN, got %v", err)
	}
}

func TestGraphCheck_AcceptsLegacyTokenEnv(t *testing.T) {
	t.Setenv("META_USER_ACCESS_TOKEN", "")
	t.Setenv("META_ACCESS_TOKEN", "legacy-tok")
	t.Setenv("META_AD_ACCOUNT_ID", "")

	err := graphCheckCmd.RunE(graphCheckCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "META_AD_ACCOUNT_ID") {
		t.Fatalf("legacy token should pass the token check, got %v", err)
	}
}

func TestGraphCheck_RequiresAdAccountID(t *testing.T) {
	t.Setenv("META_USER_ACCESS_TOKEN", "tok")
	t.Setenv("META_AD_ACCOUNT_ID", "")

	err := graphCheckCmd.RunE(graphCheckCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "META_AD_ACCOUNT_ID") {
		t.Fatalf("expected missing ad account error, got %v", err)
	}
}
