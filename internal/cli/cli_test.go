//go:build !integration

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolix-activation/internal/domain/model"
)

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := "log:\n  level: error\ndatabase:\n  driver: sqlite\n  sqlite_path: " + filepath.Join(dir, "toolix.db") + "\n" + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append(args, "--config", cfgPath), &out)
	return out.String(), err
}

func lineValue(out, prefix string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

func TestCodeHash(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, cfg, "code", "hash", "TOOLIX-WEE-0A1B2C3D4E5F")
	require.NoError(t, err)
	assert.Equal(t, model.HashCode("TOOLIX-WEE-0A1B2C3D4E5F"), strings.TrimSpace(out))

	_, err = execute(t, cfg, "code", "hash", "toolix-wee-nope")
	assert.Error(t, err)
}

func TestCodeIssueAndValidate(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, cfg, "code", "issue", "--session", "cs_support_1", "--plan", "monthly")
	require.NoError(t, err)
	code := lineValue(out, "Code:")
	require.True(t, model.IsValidCodeFormat(code), "unexpected code %q", code)
	assert.True(t, strings.HasPrefix(code, "TOOLIX-MON-"))

	again, err := execute(t, cfg, "code", "issue", "--session", "cs_support_1", "--plan", "monthly")
	require.NoError(t, err)
	assert.Equal(t, code, lineValue(again, "Code:"))
	assert.Contains(t, again, "session already had a code")

	out, err = execute(t, cfg, "code", "validate", code)
	require.NoError(t, err)
	assert.Equal(t, "valid: 720h single_use=false", strings.TrimSpace(out))

	out, err = execute(t, cfg, "code", "validate", strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.Equal(t, "invalid", strings.TrimSpace(out))
}

func TestCodeIssue_RejectsPromoPlan(t *testing.T) {
	cfg := writeConfig(t, "")
	_, err := execute(t, cfg, "code", "issue", "--session", "cs_support_2", "--plan", "free_promo")
	assert.Error(t, err)
}

func TestPromoToken(t *testing.T) {
	cfg := writeConfig(t, "server:\n  public_base_url: https://toolix.test/\n")

	out, err := execute(t, cfg, "promo", "token")
	require.NoError(t, err)
	tok := lineValue(out, "Token:")
	require.NotEmpty(t, tok)
	assert.Equal(t, "https://toolix.test/promo/"+tok, lineValue(out, "Claim:"))

	out, err = execute(t, cfg, "promo", "sweep")
	require.NoError(t, err)
	assert.Equal(t, "swept 0 expired tokens", strings.TrimSpace(out))
}

func TestAccountGrant_UnknownAccount(t *testing.T) {
	cfg := writeConfig(t, "")
	_, err := execute(t, cfg, "account", "grant", "missing", "--plan", "weekly")
	assert.Error(t, err)
}

func TestAccountPut(t *testing.T) {
	cfg := writeConfig(t, "")
	out, err := execute(t, cfg, "account", "put", "acc-9", "--username", "ada")
	require.NoError(t, err)
	assert.Equal(t, "saved acc-9", strings.TrimSpace(out))
}

func TestTokenMint(t *testing.T) {
	_, err := execute(t, writeConfig(t, ""), "token", "mint", "acc-1")
	assert.Error(t, err, "expected mint to refuse an ephemeral secret")

	out, err := execute(t, writeConfig(t, "auth:\n  jwt_secret: s3cret\n"), "token", "mint", "acc-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}
