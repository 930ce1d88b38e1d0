// Package openai provides a classifier.Classifier implementation using
// the OpenAI Chat Completions API. It prompts for a single JSON object and
// decodes it into the normalized Classification shape.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/AdonayRH/wahisper-sub000/classifier"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI classifier adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Timeout bounds each classification round trip. The router maps a
	// timeout to low confidence, so a slow provider degrades gracefully.
	Timeout time.Duration
}

// Classifier wraps the OpenAI Chat Completions API behind the generic
// classifier.Classifier interface.
type Classifier struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI classifier using the official client.
func New(optFns ...func(o *Options)) *Classifier {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI classifier from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 256,
		Timeout:             8 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Classify implements classifier.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string, convCtx classifier.Context) (classifier.Classification, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstructions()),
			openai.UserMessage(classifier.BuildUserPrompt(text, convCtx)),
		},
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}

	completion, err := c.client.Chat.Completions.New(tctx, params)
	if err != nil {
		return classifier.Classification{}, c.wrap(err, tctx)
	}
	if len(completion.Choices) == 0 {
		return classifier.Classification{}, fmt.Errorf("openai: empty completion")
	}
	return classifier.ParseClassification(completion.Choices[0].Message.Content)
}

// Info implements classifier.Classifier.
func (c *Classifier) Info() classifier.Info {
	return classifier.Info{Name: c.opts.Model, Provider: "openai"}
}

func (c *Classifier) wrap(err error, ctx context.Context) error {
	if ctx.Err() != nil {
		return &core.UpstreamTimeoutError{Collaborator: "classifier", Err: ctx.Err()}
	}
	return fmt.Errorf("openai classification: %w", err)
}

func systemInstructions() string { return classifier.SystemPrompt() }
