package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mautops/notary-gin/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const saleFixture = `
body: "في {{today_date}} باع {{seller_name}} إلى {{buyer_name}} بثمن {{price}} دج، رقم {{contract_number}}. {{office_name}}"
fields:
  - label: اسم البائع
    key: seller_name
    source: client
    client_role: seller
    client_field: full_name
    is_required: true
  - label: اسم المشتري
    key: buyer_name
    source: client
    client_role: buyer
    client_field: full_name
  - label: الثمن
    key: price
    type: number
    is_required: true
clients:
  seller:
    id: c1
    attributes:
      full_name: محمد بن يطو
values:
  price: "1500000"
office:
  id: office-1
  name: مكتب التوثيق
user:
  id: u1
  name: الموثق
now: "2026-03-01T10:00:00Z"
`

func writeFixture(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	root := cmd.GetRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	root := cmd.GetRootCmd()
	assert.Equal(t, "notary-gin", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"server", "migrate", "compile", "tokens", "issue-token"} {
		assert.True(t, names[name], name)
	}
}

func TestCompileCommand(t *testing.T) {
	path := writeFixture(t, saleFixture)

	stdout, stderr, err := run(t, "compile", path, "--json=false")
	require.NoError(t, err)
	assert.Equal(t, "في 2026-03-01 باع محمد بن يطو إلى  بثمن 1500000 دج، رقم [سيتم إنشاؤه تلقائياً]. مكتب التوثيق\n", stdout)
	assert.Contains(t, stderr, "gap: buyer_name")

	stdout, _, err = run(t, "compile", path, "--json")
	require.NoError(t, err)
	var result struct {
		Text string   `json:"text"`
		Gaps []string `json:"gaps"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, []string{"buyer_name"}, result.Gaps)
}

func TestCompileCommand_Blocked(t *testing.T) {
	path := writeFixture(t, `
body: "{{price}}"
fields:
  - label: الثمن
    key: price
    type: number
    is_required: true
values:
  price: كثير
`)
	_, stderr, err := run(t, "compile", path, "--json=false")
	assert.Error(t, err)
	assert.Contains(t, stderr, "error: price (invalid_value)")
}

func TestCompileCommand_InvalidDefinitions(t *testing.T) {
	path := writeFixture(t, `
body: "{{a}}"
fields:
  - label: a
    key: A
`)
	_, _, err := run(t, "compile", path, "--json=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestTokensCommand(t *testing.T) {
	stdout, _, err := run(t, "tokens", "seller_national")
	require.NoError(t, err)
	assert.Contains(t, stdout, "{{seller_national_id}}")

	stdout, _, err = run(t, "tokens")
	require.NoError(t, err)
	assert.Contains(t, stdout, "{{buyer_full_name}}")
}

func TestIssueTokenCommand(t *testing.T) {
	t.Setenv("APP_AUTH_JWT_SECRET", "dev-secret")
	stdout, stderr, err := run(t, "issue-token", "--user", "u1", "--name", "الموثق", "--office", "office-1", "--ttl", "1h")
	require.NoError(t, err)
	assert.Regexp(t, `^[\w-]+\.[\w-]+\.[\w-]+\n$`, stdout)
	assert.Contains(t, stderr, "expires")
}
