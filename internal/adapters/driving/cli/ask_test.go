package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.chat.reply = &domain.ChatReply{
		Text: "Use a path operation decorator.",
		Docs: &domain.ContextResult{SourceLabel: "FastAPI Docs", ChunkCount: 8},
	}

	stdout, _, err := execute("ask", "how", "do", "fastapi", "routes", "work")

	require.NoError(t, err)
	assert.Equal(t, []string{"how do fastapi routes work"}, testEnv.chat.asked)
	assert.Contains(t, stdout, "Use a path operation decorator.")
	assert.Contains(t, stdout, "Sources: FastAPI Docs (8 excerpts)")
}

func TestAskCmd_FailedReplyGoesToStderr(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.chat.reply = &domain.ChatReply{Text: "Authentication failed.", Failed: true}
	testEnv.chat.err = domain.ErrLLMAuth

	stdout, stderr, err := execute("ask", "hello")

	assert.ErrorIs(t, err, domain.ErrLLMAuth)
	assert.NotContains(t, stdout, "Authentication failed.")
	assert.Contains(t, stderr, "Authentication failed.")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(nil)

	_, _, err := execute("ask", "hello")

	assert.ErrorIs(t, err, errNoChatService)
}
