package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sasusavage/SourceScout/internal/analysis/cutoff"
	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/model/chat"
	"github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/internal/service/upstream"
)

type fakeUpstream struct {
	srv    *httptest.Server
	hits   atomic.Int32
	bodies chan map[string]any
}

func newFakeUpstream(t *testing.T, status int, response string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{bodies: make(chan map[string]any, 8)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		f.bodies <- body
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) lastBody(t *testing.T) map[string]any {
	t.Helper()
	select {
	case body := <-f.bodies:
		return body
	default:
		t.Fatal("upstream was not called")
		return nil
	}
}

func messagesOf(body map[string]any) []map[string]any {
	raw, _ := body["messages"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any))
	}
	return out
}

type fixture struct {
	chatUpstream   *fakeUpstream
	searchUpstream *fakeUpstream
	cfg            config.UpstreamConfig
}

func (f fixture) service() *Service {
	chatDispatcher := upstream.NewDispatcher(nil, upstream.NewOpenAI(f.cfg), upstream.NewOpenRouter(f.cfg))
	searchDispatcher := upstream.NewDispatcher(nil, upstream.NewPerplexity(f.cfg))
	store := persona.NewMemoryStore(persona.Seed(), persona.Pidgin)
	return NewService(chatDispatcher, searchDispatcher, store, f.cfg, nil)
}

func newFixture(t *testing.T, chatStatus int, chatBody string, searchStatus int, searchBody string) fixture {
	t.Helper()
	chatUp := newFakeUpstream(t, chatStatus, chatBody)
	searchUp := newFakeUpstream(t, searchStatus, searchBody)
	return fixture{
		chatUpstream:   chatUp,
		searchUpstream: searchUp,
		cfg: config.UpstreamConfig{
			OpenAI:             config.ProviderConfig{APIKey: "sk-test", URL: chatUp.srv.URL},
			Perplexity:         config.ProviderConfig{APIKey: "pplx-test", URL: searchUp.srv.URL},
			DefaultModel:       "gpt-4o-mini",
			SearchModel:        "sonar-pro",
			InjectSystemPrompt: true,
			ChatTimeout:        5 * time.Second,
		},
	}
}

const okAnswer = `{"choices":[{"message":{"content":"Lagos dey hot [1][2]. Read https://news.example.com/lagos"}}]}`

func TestNormalizeMode(t *testing.T) {
	cases := map[string]string{
		"":           ModeChat,
		"chat":       ModeChat,
		"CHAT":       ModeChat,
		"unknown":    ModeChat,
		"web":        ModeWeb,
		"web-search": ModeWeb,
		"Search":     ModeWeb,
		"perplexity": ModeWeb,
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeMode(in), in)
	}
}

func TestAskWithoutCredentialFailsBeforeValidation(t *testing.T) {
	svc := NewService(upstream.NewDispatcher(nil), upstream.NewDispatcher(nil), persona.NewMemoryStore(persona.Seed(), ""), config.UpstreamConfig{}, nil)

	_, err := svc.Ask(context.Background(), AskInput{Query: ""})
	require.ErrorIs(t, err, upstream.ErrNoCredential)

	_, err = svc.Ask(context.Background(), AskInput{Query: "hello", Mode: "web"})
	require.ErrorIs(t, err, upstream.ErrNoCredential)
}

func TestAskRequiresQuery(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)
	_, err := f.service().Ask(context.Background(), AskInput{Query: ""})
	require.ErrorIs(t, err, ErrEmptyQuery)
	require.Zero(t, f.chatUpstream.hits.Load())
}

func TestAskAcceptsWhitespaceQuery(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)

	answer, err := f.service().Ask(context.Background(), AskInput{Query: "   "})
	require.NoError(t, err)
	require.NotEmpty(t, answer.Answer)

	msgs := messagesOf(f.chatUpstream.lastBody(t))
	require.Equal(t, map[string]any{"role": "user", "content": "   "}, msgs[len(msgs)-1])
}

func TestAskChatInjectsPersonaAndNormalizes(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)

	answer, err := f.service().Ask(context.Background(), AskInput{
		Query:       "How far Lagos?",
		History:     []chat.Message{{Role: chat.RoleUser, Content: "hi"}, {Role: chat.RoleAssistant, Content: "hello"}},
		Personality: "FLUENT",
	})
	require.NoError(t, err)
	require.Equal(t, "Lagos dey hot. Read https://news.example.com/lagos", answer.Answer)
	require.Equal(t, persona.Fluent, answer.Personality)
	require.Equal(t, ModeChat, answer.Mode)
	require.Len(t, answer.Citations, 1)
	require.Equal(t, "news.example.com", answer.Citations[0].Domain)
	require.Nil(t, answer.Raw)

	body := f.chatUpstream.lastBody(t)
	require.Equal(t, "gpt-4o-mini", body["model"])
	require.InDelta(t, 0.65, body["temperature"], 1e-9)
	require.InDelta(t, 0.9, body["top_p"], 1e-9)

	msgs := messagesOf(body)
	require.Len(t, msgs, 4)
	require.Equal(t, "system", msgs[0]["role"])
	require.Contains(t, msgs[0]["content"], "articulate English")
	require.Equal(t, "hi", msgs[1]["content"])
	require.Equal(t, "assistant", msgs[2]["role"])
	require.Equal(t, map[string]any{"role": "user", "content": "How far Lagos?"}, msgs[3])
}

func TestAskChatWithoutSystemPrompt(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)
	f.cfg.InjectSystemPrompt = false
	f.cfg.IncludeRaw = true

	answer, err := f.service().Ask(context.Background(), AskInput{Query: "hello", Model: "gpt-4.1"})
	require.NoError(t, err)
	require.JSONEq(t, okAnswer, string(answer.Raw))

	body := f.chatUpstream.lastBody(t)
	require.Equal(t, "gpt-4.1", body["model"])
	msgs := messagesOf(body)
	require.Len(t, msgs, 1)
	require.Equal(t, "user", msgs[0]["role"])
}

func TestAskCutoffShortCircuits(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)

	answer, err := f.service().Ask(context.Background(), AskInput{Query: "Who won the election in 2024?"})
	require.NoError(t, err)
	require.Equal(t, cutoff.Label, answer.KnowledgeCutoff)
	require.Equal(t, persona.Pidgin, answer.Personality)
	require.Contains(t, answer.Answer, "October 2023")
	require.Empty(t, answer.Citations)
	require.Zero(t, f.chatUpstream.hits.Load())
}

func TestAskWebSkipsCutoffAndPassesOptions(t *testing.T) {
	searchBody := `{"citations":["https://a.com/1",{"title":"Source #2","url":"https://b.com/2"}],"choices":[{"message":{"content":"Results for 2025 [1]"}}]}`
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, searchBody)

	answer, err := f.service().Ask(context.Background(), AskInput{
		Query:            "Headlines from 2025",
		Model:            "ignored-in-web-mode",
		Mode:             "perplexity",
		WebSearchOptions: map[string]any{"search_context_size": "low"},
	})
	require.NoError(t, err)
	require.Equal(t, ModeWeb, answer.Mode)
	require.Empty(t, answer.KnowledgeCutoff)
	require.Equal(t, "Results for 2025", answer.Answer)
	require.Len(t, answer.Citations, 2)
	require.Equal(t, "b.com", answer.Citations[1].Title)

	body := f.searchUpstream.lastBody(t)
	require.Equal(t, "sonar-pro", body["model"])
	require.InDelta(t, 0.3, body["temperature"], 1e-9)
	require.Equal(t, map[string]any{"search_context_size": "low"}, body["web_search_options"])
	require.Len(t, messagesOf(body), 1)
	require.Zero(t, f.chatUpstream.hits.Load())
}

func TestAskWebDegradesOnUpstreamFailure(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusBadGateway, `{"error":"boom"}`)

	answer, err := f.service().Ask(context.Background(), AskInput{Query: "latest news", Mode: "web"})
	require.NoError(t, err)
	require.Equal(t, WebSearchUnavailable, answer.Answer)
	require.Equal(t, ModeWeb, answer.Mode)
	require.Empty(t, answer.Citations)
}

func TestAskChatPropagatesHTTPError(t *testing.T) {
	f := newFixture(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, http.StatusOK, okAnswer)

	_, err := f.service().Ask(context.Background(), AskInput{Query: "hello"})
	var httpErr *upstream.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestChatInsertsSystemMessage(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)

	answer, err := f.service().Chat(context.Background(), ChatInput{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, persona.Pidgin, answer.Personality)
	require.Empty(t, answer.Mode)
	require.Len(t, answer.Citations, 1)

	body := f.chatUpstream.lastBody(t)
	require.InDelta(t, 0.7, body["temperature"], 1e-9)
	require.InDelta(t, 1.0, body["top_p"], 1e-9)
	msgs := messagesOf(body)
	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0]["role"])
	require.Contains(t, msgs[0]["content"], "Pidgin")
}

func TestChatKeepsCallerSystemMessage(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)
	temperature, topP := 0.2, 0.5

	_, err := f.service().Chat(context.Background(), ChatInput{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "be brief"},
			{Role: chat.RoleUser, Content: "hello"},
		},
		Temperature: &temperature,
		TopP:        &topP,
	})
	require.NoError(t, err)

	body := f.chatUpstream.lastBody(t)
	require.InDelta(t, 0.2, body["temperature"], 1e-9)
	require.InDelta(t, 0.5, body["top_p"], 1e-9)
	msgs := messagesOf(body)
	require.Len(t, msgs, 2)
	require.Equal(t, "be brief", msgs[0]["content"])
}

func TestChatInjectSystemDisabled(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)
	inject := false

	_, err := f.service().Chat(context.Background(), ChatInput{
		Messages:     []chat.Message{{Role: chat.RoleUser, Content: "hello"}},
		InjectSystem: &inject,
	})
	require.NoError(t, err)
	require.Len(t, messagesOf(f.chatUpstream.lastBody(t)), 1)
}

func TestChatRequiresMessages(t *testing.T) {
	f := newFixture(t, http.StatusOK, okAnswer, http.StatusOK, okAnswer)
	_, err := f.service().Chat(context.Background(), ChatInput{})
	require.ErrorIs(t, err, ErrNoMessages)
}
