// Package tutor forwards learner chat to the AI gateway with a fixed
// tutoring persona, falling back to an offline reply when no model answers.
package tutor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/codemaster/internal/ai"
)

const (
	// HistoryLimit is how many trailing messages are forwarded to the model.
	HistoryLimit = 12

	maxTokens      = 1024
	defaultTimeout = 45 * time.Second
	cachePrefix    = "codemaster:tutor:"
)

// SystemPrompt is the tutoring persona sent with every conversation.
const SystemPrompt = "Você é o CodeMaster AI, tutor de Python, JavaScript e Java. " +
	"Responda em português brasileiro, seja didático e use emojis ocasionalmente."

const (
	offlineNoProvider = "O tutor de IA está offline. Configure LEARN_AI_ANTHROPIC_API_KEY ou LEARN_AI_OPENAI_API_KEY para ativá-lo."
	offlineFailure    = "O tutor de IA não conseguiu responder agora. Tente novamente em instantes."
)

// Reply is what the learner sees.
type Reply struct {
	Response string `json:"response"`
	Offline  bool   `json:"offline"`
}

// Config holds dependencies for the tutor service.
type Config struct {
	AI       ai.Completer
	Cache    ReplyCache    // optional, defaults to no caching
	CacheTTL time.Duration // zero disables caching
	Timeout  time.Duration // per completion, default 45s
}

// Service answers learner chat.
type Service struct {
	ai       ai.Completer
	cache    ReplyCache
	cacheTTL time.Duration
	timeout  time.Duration
}

// New creates a tutor service.
func New(cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		ai:       cfg.AI,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		timeout:  timeout,
	}
}

// Chat answers the conversation. It never fails: when the model is not
// configured or does not answer, the reply is marked offline.
func (s *Service) Chat(ctx context.Context, history []ai.Message) Reply {
	msgs := Trim(history)
	if len(msgs) == 0 {
		return Reply{Response: "Envie uma pergunta para começar. 🙂"}
	}
	if s.ai == nil || !s.ai.HasProvider() {
		return Reply{Response: offlineNoProvider, Offline: true}
	}

	key := cacheKey(msgs)
	if cached, ok := s.lookup(ctx, key); ok {
		return Reply{Response: cached}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.ai.Complete(ctx, ai.CompletionRequest{
		System:    SystemPrompt,
		Messages:  msgs,
		MaxTokens: maxTokens,
	})
	if err != nil {
		slog.Error("tutor completion failed", "messages", len(msgs), "error", err)
		return Reply{Response: offlineFailure, Offline: true}
	}

	slog.Info("tutor replied",
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens", resp.TotalTokens(),
	)
	s.store(ctx, key, resp.Content)
	return Reply{Response: resp.Content}
}

// Trim keeps the last HistoryLimit user and assistant turns with content.
func Trim(history []ai.Message) []ai.Message {
	msgs := make([]ai.Message, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if (role == ai.RoleUser || role == ai.RoleAssistant) && strings.TrimSpace(m.Content) != "" {
			msgs = append(msgs, ai.Message{Role: role, Content: m.Content})
		}
	}
	if len(msgs) > HistoryLimit {
		msgs = msgs[len(msgs)-HistoryLimit:]
	}
	return msgs
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return "", false
	}
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("tutor cache read failed", "error", err)
		return "", false
	}
	return v, ok
}

func (s *Service) store(ctx context.Context, key, reply string) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, reply, s.cacheTTL); err != nil {
		slog.Warn("tutor cache write failed", "error", err)
	}
}

func cacheKey(msgs []ai.Message) string {
	data, _ := json.Marshal(msgs)
	sum := sha256.Sum256(data)
	return cachePrefix + hex.EncodeToString(sum[:])
}
