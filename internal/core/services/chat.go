package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Keys the chat agent keeps in the key-value store.
const (
	KeyAPIKey     = "docsrag:api-key"
	KeyGuestCount = "docsrag:guest:count"
	KeyTranscript = "docsrag:chat:transcript"
)

// ReadDocumentationTool is the function the model may call to read a page.
const ReadDocumentationTool = "read_documentation"

// Replies shown instead of a model answer.
const (
	msgNoKey       = "No API key is configured. Add one with `docsrag settings set-key`."
	msgGuestLimit  = "The guest allowance of %d messages is used up. Add your own Gemini API key with `docsrag settings set-key` to keep chatting."
	msgAuthFailed  = "Your API key was rejected by the model provider. Check it and set it again with `docsrag settings set-key`."
	msgUnavailable = "Error connecting to the LLM endpoint. Run with --verbose for details."
	msgEmptyAnswer = "I was unable to formulate a response."
)

// maxTranscriptTurns bounds the stored transcript.
const maxTranscriptTurns = 200

// ChatConfig tunes the chat agent.
type ChatConfig struct {
	// DefaultAPIKey is the shared guest key, used when the user has not
	// stored their own.
	DefaultAPIKey string

	// GuestLimit caps the messages the guest key answers.
	GuestLimit int

	// ConfidenceThreshold is the top retrieval score at which the
	// documentation context is trusted enough to answer from.
	ConfidenceThreshold float64

	// Temperature is the sampling temperature.
	Temperature float64

	// WebSearch attaches the web search tool to weakly grounded questions.
	WebSearch bool

	// MaxToolRounds bounds function-call round trips per message.
	MaxToolRounds int

	// ReadLimit truncates pages returned by read_documentation, in runes.
	ReadLimit int

	// HistoryTurns is how many earlier turns are replayed to the model.
	HistoryTurns int
}

// DefaultChatConfig returns the standard chat settings.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		GuestLimit:          5,
		ConfidenceThreshold: 0.35,
		Temperature:         0.2,
		MaxToolRounds:       3,
		ReadLimit:           12000,
		HistoryTurns:        10,
	}
}

// ChatService answers questions with a generative model, grounding them
// in documentation context when retrieval is confident.
type ChatService struct {
	docs    driving.DocsService
	llm     driven.LLMService
	store   driven.KVStore
	prompts driven.PromptStore
	fetcher driven.PageFetcher
	parser  driven.PageParser

	// mu serialises messages so the guest counter and transcript are
	// read-modify-written atomically.
	mu        sync.Mutex
	cfg       ChatConfig
	webSearch atomic.Bool

	now   func() time.Time
	newID func() string
}

// NewChatService creates a chat agent. fetcher and parser back the
// read_documentation tool.
func NewChatService(
	docs driving.DocsService,
	llm driven.LLMService,
	store driven.KVStore,
	prompts driven.PromptStore,
	fetcher driven.PageFetcher,
	parser driven.PageParser,
	cfg ChatConfig,
) *ChatService {
	defaults := DefaultChatConfig()
	if cfg.GuestLimit <= 0 {
		cfg.GuestLimit = defaults.GuestLimit
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaults.MaxToolRounds
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = defaults.ReadLimit
	}
	if cfg.HistoryTurns < 0 {
		cfg.HistoryTurns = 0
	}
	s := &ChatService{
		docs:    docs,
		llm:     llm,
		store:   store,
		prompts: prompts,
		fetcher: fetcher,
		parser:  parser,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	s.webSearch.Store(cfg.WebSearch)
	return s
}

// Ask answers one user message.
func (s *ChatService) Ask(ctx context.Context, text string, observer driving.StatusObserver) (*domain.ChatReply, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apiKey, guest := s.resolveKey(ctx)
	if apiKey == "" || s.llm == nil {
		return &domain.ChatReply{Text: msgNoKey, Failed: true}, domain.ErrLLMUnavailable
	}
	if guest && s.guestCount(ctx) >= s.cfg.GuestLimit {
		return &domain.ChatReply{
			Text:   fmt.Sprintf(msgGuestLimit, s.cfg.GuestLimit),
			Failed: true,
			Guest:  true,
		}, domain.ErrGuestLimitReached
	}

	docs, err := s.docs.GetContext(ctx, question, observer)
	if err != nil {
		return nil, err
	}

	req, err := s.buildRequest(ctx, apiKey, question, docs)
	if err != nil {
		return s.failure(guest, err), err
	}
	reply := &domain.ChatReply{
		Docs:      docs,
		WebSearch: req.Tools == domain.ToolsWebSearch,
		Guest:     guest,
	}

	answer, err := s.converse(ctx, req)
	if err != nil {
		failed := s.failure(guest, err)
		failed.Docs = docs
		failed.WebSearch = reply.WebSearch
		return failed, err
	}
	reply.Text = answer

	if guest {
		s.setGuestCount(ctx, s.guestCount(ctx)+1)
	}
	s.record(ctx, question, answer)
	return reply, nil
}

// buildRequest assembles the model request. A confident retrieval result
// is inlined into the question; otherwise the model gets exactly one kind
// of tool, because web search and function calling cannot be combined.
func (s *ChatService) buildRequest(
	ctx context.Context,
	apiKey, question string,
	docs *domain.ContextResult,
) (domain.LLMRequest, error) {
	system, err := s.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		return domain.LLMRequest{}, fmt.Errorf("loading system prompt: %w", err)
	}

	req := domain.LLMRequest{
		APIKey:            apiKey,
		SystemInstruction: system,
		Temperature:       s.cfg.Temperature,
		Contents:          s.historyContents(ctx),
	}

	prompt := question
	switch {
	case docs != nil && docs.TopScore >= s.cfg.ConfidenceThreshold:
		template, err := s.prompts.Load(driven.PromptDocsContext)
		if err != nil {
			return domain.LLMRequest{}, fmt.Errorf("loading docs prompt: %w", err)
		}
		prompt = fmt.Sprintf(template, docs.SourceLabel, docs.Context, question)
		logger.Debug("chat: grounded on %s (top score %.4f)", docs.SourceLabel, docs.TopScore)
	case s.webSearch.Load():
		req.Tools = domain.ToolsWebSearch
	default:
		description, err := s.prompts.Load(driven.PromptReadDocumentation)
		if err != nil {
			return domain.LLMRequest{}, fmt.Errorf("loading tool prompt: %w", err)
		}
		req.Tools = domain.ToolsFunctions
		req.Functions = []domain.FunctionDeclaration{readDocumentationDeclaration(description)}
	}

	req.Contents = append(req.Contents, domain.LLMContent{
		Role:  domain.RoleUser,
		Parts: []domain.LLMPart{{Text: prompt}},
	})
	return req, nil
}

func readDocumentationDeclaration(description string) domain.FunctionDeclaration {
	return domain.FunctionDeclaration{
		Name:        ReadDocumentationTool,
		Description: description,
		Parameters: map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "STRING",
					"description": "Absolute URL to read.",
				},
			},
			"required": []string{"url"},
		},
	}
}

// converse sends req and services function calls until the model answers
// with text or the round budget is spent.
func (s *ChatService) converse(ctx context.Context, req domain.LLMRequest) (string, error) {
	for round := 0; ; round++ {
		resp, err := s.llm.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.FunctionCalls) == 0 || round >= s.cfg.MaxToolRounds {
			if strings.TrimSpace(resp.Text) == "" {
				return msgEmptyAnswer, nil
			}
			return resp.Text, nil
		}

		calls := make([]domain.LLMPart, 0, len(resp.FunctionCalls))
		results := make([]domain.LLMPart, 0, len(resp.FunctionCalls))
		for _, call := range resp.FunctionCalls {
			calls = append(calls, domain.LLMPart{FunctionCall: &call})
			results = append(results, domain.LLMPart{FunctionResponse: s.callFunction(ctx, call)})
		}
		req.Contents = append(req.Contents,
			domain.LLMContent{Role: domain.RoleModel, Parts: calls},
			domain.LLMContent{Role: domain.RoleUser, Parts: results},
		)
	}
}

// callFunction runs a model-requested function. Failures are reported to
// the model in the response rather than aborting the conversation.
func (s *ChatService) callFunction(ctx context.Context, call domain.FunctionCall) *domain.FunctionResponse {
	response := &domain.FunctionResponse{Name: call.Name}
	if call.Name != ReadDocumentationTool {
		response.Response = map[string]any{"error": "unknown function " + call.Name}
		return response
	}

	raw, _ := call.Args["url"].(string)
	target, ok := NormalizeURL(strings.TrimSpace(raw))
	if !ok || !strings.HasPrefix(target, "http") {
		response.Response = map[string]any{"error": "url must be an absolute http(s) URL"}
		return response
	}

	logger.Debug("chat: model reads %s", target)
	html, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		response.Response = map[string]any{"url": target, "error": err.Error()}
		return response
	}
	page := s.parser.Parse(target, html)
	response.Response = map[string]any{
		"url":     target,
		"title":   page.Title,
		"content": truncateRunes(page.Text, s.cfg.ReadLimit),
	}
	return response
}

func (s *ChatService) failure(guest bool, err error) *domain.ChatReply {
	text := msgUnavailable
	if errors.Is(err, domain.ErrLLMAuth) {
		text = msgAuthFailed
	}
	logger.Warn("chat: %v", err)
	return &domain.ChatReply{Text: text, Failed: true, Guest: guest}
}

// resolveKey returns the user's key, or the guest key with guest set.
func (s *ChatService) resolveKey(ctx context.Context) (key string, guest bool) {
	if stored, err := s.store.Get(ctx, KeyAPIKey); err == nil && strings.TrimSpace(stored) != "" {
		return strings.TrimSpace(stored), false
	}
	return s.cfg.DefaultAPIKey, true
}

func (s *ChatService) guestCount(ctx context.Context) int {
	raw, err := s.store.Get(ctx, KeyGuestCount)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *ChatService) setGuestCount(ctx context.Context, n int) {
	if err := s.store.Set(ctx, KeyGuestCount, strconv.Itoa(n)); err != nil {
		logger.Warn("chat: saving guest count: %v", err)
	}
}

// History returns the transcript, oldest first.
func (s *ChatService) History(ctx context.Context) ([]domain.ChatTurn, error) {
	raw, err := s.store.Get(ctx, KeyTranscript)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	var turns []domain.ChatTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		logger.Warn("chat: discarding corrupt transcript: %v", err)
		return nil, nil
	}
	return turns, nil
}

func (s *ChatService) historyContents(ctx context.Context) []domain.LLMContent {
	if s.cfg.HistoryTurns == 0 {
		return nil
	}
	turns, err := s.History(ctx)
	if err != nil {
		logger.Warn("chat: %v", err)
		return nil
	}
	if len(turns) > s.cfg.HistoryTurns {
		turns = turns[len(turns)-s.cfg.HistoryTurns:]
	}
	contents := make([]domain.LLMContent, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, domain.LLMContent{
			Role:  turn.Role,
			Parts: []domain.LLMPart{{Text: turn.Text}},
		})
	}
	return contents
}

// record appends a question and its answer to the transcript.
func (s *ChatService) record(ctx context.Context, question, answer string) {
	turns, err := s.History(ctx)
	if err != nil {
		logger.Warn("chat: %v", err)
		return
	}
	now := s.now()
	turns = append(turns,
		domain.ChatTurn{ID: s.newID(), Role: domain.RoleUser, Text: question, At: now},
		domain.ChatTurn{ID: s.newID(), Role: domain.RoleModel, Text: answer, At: now},
	)
	if len(turns) > maxTranscriptTurns {
		turns = turns[len(turns)-maxTranscriptTurns:]
	}
	payload, err := json.Marshal(turns)
	if err != nil {
		logger.Warn("chat: encoding transcript: %v", err)
		return
	}
	if err := s.store.Set(ctx, KeyTranscript, string(payload)); err != nil {
		logger.Warn("chat: transcript kept in memory only: %v", err)
	}
}

// Clear drops the transcript.
func (s *ChatService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, KeyTranscript); err != nil {
		return fmt.Errorf("clearing transcript: %w", err)
	}
	return nil
}

// SetAPIKey stores the user's own key.
func (s *ChatService) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty API key", domain.ErrInvalidInput)
	}
	if err := s.store.Set(ctx, KeyAPIKey, key); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}
	return nil
}

// ClearAPIKey removes the user's key.
func (s *ChatService) ClearAPIKey(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyAPIKey); err != nil {
		return fmt.Errorf("clearing API key: %w", err)
	}
	return nil
}

// HasAPIKey reports whether the user stored their own key.
func (s *ChatService) HasAPIKey(ctx context.Context) bool {
	_, guest := s.resolveKey(ctx)
	return !guest
}

// GuestMessagesLeft returns the remaining guest allowance.
func (s *ChatService) GuestMessagesLeft(ctx context.Context) int {
	left := s.cfg.GuestLimit - s.guestCount(ctx)
	if left < 0 {
		return 0
	}
	return left
}

// SetWebSearch toggles the web search tool.
func (s *ChatService) SetWebSearch(enabled bool) {
	s.webSearch.Store(enabled)
}

// WebSearch reports whether the web search tool is enabled.
func (s *ChatService) WebSearch() bool {
	return s.webSearch.Load()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
