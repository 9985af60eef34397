// Package ai wraps the OpenAI API behind domain operations: reply
// generation for inbound messages, call summarization, recording
// transcription, and embeddings for the dashboard assistant.
package ai

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"businesson_backend/platform/config"
	"businesson_backend/platform/logger"

	"github.com/sashabaranov/go-openai"
)

// Message roles in a conversation history.
const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one turn of conversation history passed to the model.
type Message struct {
	Role    string
	Content string
}

// Settings carries the per-channel generation parameters. Callers map
// their stored channel settings onto this struct.
type Settings struct {
	BusinessContext  string
	Tone             string
	Style            string
	Model            string
	Temperature      float32
	TopP             float32
	MaxTokens        int
	FrequencyPenalty float32
	PresencePenalty  float32
}

// Responder generates automated replies and summaries via OpenAI.
type Responder struct {
	client       *openai.Client
	log          *logger.Logger
	defaultModel string
}

// New creates a Responder. The API key is required; callers that can run
// without AI check the config before constructing one.
func New(cfg config.OpenAIConfig, log *logger.Logger) (*Responder, error) {
	if cfg.GetOpenAIAPIKey() == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &Responder{
		client:       openai.NewClient(cfg.GetOpenAIAPIKey()),
		log:          log,
		defaultModel: cfg.GetOpenAIDefaultModel(),
	}, nil
}

// GenerateReply produces an automated response to the latest inbound
// message, given the conversation history oldest-first.
func (r *Responder) GenerateReply(ctx context.Context, settings Settings, history []Message, inbound string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(settings),
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: inbound,
	})

	return r.complete(ctx, "reply", settings, messages)
}

// GenerateSummary condenses a call transcript into a short summary.
func (r *Responder) GenerateSummary(ctx context.Context, settings Settings, transcript string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(settings) + "\nSummarize the following call transcript in a few sentences, noting the outcome and any follow-up the lead asked for.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: transcript,
		},
	}

	return r.complete(ctx, "summary", settings, messages)
}

// maxAnswerContext caps how many snippets go into the assistant prompt.
const maxAnswerContext = 20

// Answer responds to a free-form question grounded on the supplied context
// snippets. When more snippets are supplied than fit the prompt, they are
// ranked by embedding similarity to the question and the closest kept.
func (r *Responder) Answer(ctx context.Context, question string, contextSnippets []string) (string, error) {
	snippets := r.rankByRelevance(ctx, question, contextSnippets)

	prompt := "You are an assistant for a lead engagement dashboard. Answer using only the context below. If the context does not contain the answer, say so.\n\nContext:\n"
	for _, snippet := range snippets {
		prompt += "- " + snippet + "\n"
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}

	return r.complete(ctx, "answer", Settings{MaxTokens: 500}, messages)
}

// Transcribe converts an audio recording to text using Whisper.
func (r *Responder) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		r.log.ProviderError("openai", "transcription", err)
		return "", &GenerationError{Operation: "transcription", Err: err}
	}

	return strings.TrimSpace(resp.Text), nil
}

// Embed returns one embedding vector per input text.
func (r *Responder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.SmallEmbedding3,
		Input: texts,
	})
	if err != nil {
		r.log.ProviderError("openai", "embeddings", err)
		return nil, &GenerationError{Operation: "embeddings", Err: err}
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// rankByRelevance keeps the maxAnswerContext snippets closest to the
// question. Fails open: on embedding errors the first snippets are used
// unranked, since they arrive newest-first anyway.
func (r *Responder) rankByRelevance(ctx context.Context, question string, snippets []string) []string {
	if len(snippets) <= maxAnswerContext {
		return snippets
	}

	vectors, err := r.Embed(ctx, append([]string{question}, snippets...))
	if err != nil || len(vectors) != len(snippets)+1 {
		return snippets[:maxAnswerContext]
	}

	type scored struct {
		index int
		score float32
	}
	ranked := make([]scored, len(snippets))
	for i := range snippets {
		ranked[i] = scored{index: i, score: cosine(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	top := ranked[:maxAnswerContext]
	// Preserve recency order within the selection.
	sort.Slice(top, func(a, b int) bool { return top[a].index < top[b].index })

	kept := make([]string, len(top))
	for i, s := range top {
		kept[i] = snippets[s.index]
	}
	return kept
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func (r *Responder) complete(ctx context.Context, operation string, settings Settings, messages []openai.ChatCompletionMessage) (string, error) {
	model := settings.Model
	if model == "" {
		model = r.defaultModel
	}
	maxTokens := settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            model,
		Messages:         messages,
		MaxTokens:        maxTokens,
		Temperature:      settings.Temperature,
		TopP:             settings.TopP,
		FrequencyPenalty: settings.FrequencyPenalty,
		PresencePenalty:  settings.PresencePenalty,
	})
	if err != nil {
		r.log.ProviderError("openai", operation, err)
		return "", &GenerationError{Operation: operation, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Operation: operation, Err: fmt.Errorf("empty completion")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func systemPrompt(settings Settings) string {
	var b strings.Builder
	b.WriteString("You are a lead engagement assistant replying on behalf of the business.")
	if settings.BusinessContext != "" {
		b.WriteString("\nBusiness context: ")
		b.WriteString(settings.BusinessContext)
	}
	if settings.Tone != "" {
		b.WriteString("\nTone: ")
		b.WriteString(settings.Tone)
	}
	if settings.Style != "" {
		b.WriteString("\nStyle: ")
		b.WriteString(settings.Style)
	}
	return b.String()
}
