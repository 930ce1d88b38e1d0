// Package anthropic provides a classifier.Classifier implementation using
// the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/AdonayRH/wahisper-sub000/classifier"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Options configure the Anthropic classifier adapter (model id, max
// tokens, API key, per-call timeout).
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
	Timeout   time.Duration
}

// Classifier wraps the Anthropic Messages API behind the generic
// classifier.Classifier interface.
type Classifier struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic classifier using the official client.
func New(optFns ...func(o *Options)) *Classifier {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Classifier{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic classifier from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Classifier {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 256,
		Timeout:   8 * time.Second,
	}
}

// Classify implements classifier.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string, convCtx classifier.Context) (classifier.Classification, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	msg, err := c.client.Messages.New(tctx, anthropic.MessageNewParams{
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: classifier.SystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(classifier.BuildUserPrompt(text, convCtx))),
		},
	})
	if err != nil {
		if tctx.Err() != nil {
			return classifier.Classification{}, &core.UpstreamTimeoutError{Collaborator: "classifier", Err: tctx.Err()}
		}
		return classifier.Classification{}, fmt.Errorf("anthropic classification: %w", err)
	}

	var answer string
	for _, block := range msg.Content {
		if block.Type == "text" {
			answer += block.Text
		}
	}
	if answer == "" {
		return classifier.Classification{}, fmt.Errorf("anthropic: empty answer")
	}
	return classifier.ParseClassification(answer)
}

// Info implements classifier.Classifier.
func (c *Classifier) Info() classifier.Info {
	return classifier.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
