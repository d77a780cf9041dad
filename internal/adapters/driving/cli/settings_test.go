package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/config"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "AIzaSyA1234567890abcdef", expected: "AIza...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestSettingsShow_GuestMode(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settings.Chat.DefaultAPIKey = "AIzaGuestKey000000wxyz"

	stdout, _, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Home: /tmp/docsrag-test")
	assert.Contains(t, stdout, "Endpoint: https://api.allorigins.win/get")
	assert.Contains(t, stdout, "Model: gemini-2.5-flash")
	assert.Contains(t, stdout, "API Key: guest AIza...wxyz")
	assert.Contains(t, stdout, "Guest messages left: 5")
	assert.Contains(t, stdout, "Web search: off")
	assert.NotContains(t, stdout, "AIzaGuestKey000000wxyz")
}

func TestSettingsShow_NoKeyWarns(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, stdout, "API Key: (not set)")
	assert.Contains(t, stdout, "Warning: no API key")
}

func TestSettingsSetKey_FromArgument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("settings", "set-key", "AIzaUserKey1234abcd")

	require.NoError(t, err)
	assert.Equal(t, "AIzaUserKey1234abcd", testEnv.chat.key)
	assert.Contains(t, stdout, "API key saved: AIza...abcd")

	stdout, _, err = execute("settings", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "API Key: your own key")
	assert.NotContains(t, stdout, "Guest messages left")
}

func TestSettingsSetKey_Prompted(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	original := passwordReader
	passwordReader = func() string { return "AIzaPromptedKey9876" }
	defer func() { passwordReader = original }()

	stdout, _, err := execute("settings", "set-key")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Gemini API key:")
	assert.Equal(t, "AIzaPromptedKey9876", testEnv.chat.key)
}

func TestSettingsSetKey_EmptyPrompt(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	original := passwordReader
	passwordReader = func() string { return "" }
	defer func() { passwordReader = original }()

	_, _, err := execute("settings", "set-key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsClearKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.chat.key = "AIzaUserKey1234abcd"

	stdout, _, err := execute("settings", "clear-key")

	require.NoError(t, err)
	assert.Empty(t, testEnv.chat.key)
	assert.Contains(t, stdout, "guest key")
}

func TestSettingsWebSearch(t *testing.T) {
	tests := []struct {
		arg     string
		enabled bool
		want    string
	}{
		{arg: "on", enabled: true, want: "Web search enabled."},
		{arg: "off", enabled: false, want: "Web search disabled."},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()

			stdout, _, err := execute("settings", "web-search", tt.arg)

			require.NoError(t, err)
			assert.Equal(t, tt.enabled, testEnv.chat.webSearch)
			assert.Equal(t, tt.enabled, testEnv.config.GetBool(config.KeyChatWebSearch))
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestSettingsWebSearch_InvalidValue(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("settings", "web-search", "maybe")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "use on or off")
}
