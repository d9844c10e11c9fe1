package context

import (
	"github.com/jkhoffman/cogni/llm"
	"github.com/pkoukk/tiktoken-go"
)

// perMessageOverhead approximates the fixed token cost a chat wire format
// adds per message beyond its text (role markers, separators). Tuned to
// OpenAI's chat format; close enough for Anthropic/Ollama since the
// budget this feeds is advisory headroom, not a provider-enforced limit.
const perMessageOverhead = 4

// TokenCounter exposes model-aware token counting to the context manager.
type TokenCounter interface {
	CountText(text string) int
	CountMessage(msg llm.Message) int
}

// TiktokenCounter counts tokens with the BPE encoding tiktoken associates
// with the model given to NewTiktokenCounter, or cl100k_base when the
// model is not recognized. It's an approximation for non-OpenAI models,
// which is the best any client-side counter can do without a
// per-provider tokenizer endpoint.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter builds a counter for model, falling back to the
// cl100k_base encoding if model isn't recognized.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) CountText(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) CountMessage(msg llm.Message) int {
	return messageTextLength(msg, c.CountText) + perMessageOverhead
}

// CharCounter is a tokenizer-free fallback: it approximates tokens as
// text length divided by a constant. Used when no tiktoken encoding can
// be loaded (unknown model family, offline environment without the BPE
// ranks available) — an approximate count beats having none at all.
type CharCounter struct {
	CharsPerToken float64
}

// NewCharCounter returns a CharCounter using the common ~4 chars/token
// approximation for English text.
func NewCharCounter() *CharCounter {
	return &CharCounter{CharsPerToken: 4}
}

func (c *CharCounter) CountText(text string) int {
	if text == "" {
		return 0
	}
	perToken := c.CharsPerToken
	if perToken <= 0 {
		perToken = 4
	}
	n := int(float64(len(text))/perToken + 0.999999)
	if n < 1 {
		n = 1
	}
	return n
}

func (c *CharCounter) CountMessage(msg llm.Message) int {
	return messageTextLength(msg, c.CountText) + perMessageOverhead
}

// messageTextLength sums count(text) across a message's content and any
// tool-call arguments/results it carries, using count for both.
func messageTextLength(msg llm.Message, count func(string) int) int {
	total := 0
	switch msg.Content.Type {
	case llm.ContentTypeText:
		total += count(msg.Content.Text)
	case llm.ContentTypeMulti:
		for _, part := range msg.Content.Parts {
			if text, ok := part.AsText(); ok {
				total += count(text)
			}
		}
	}
	for _, tc := range msg.Metadata.ToolCalls {
		total += count(tc.Name)
		total += count(string(tc.Arguments))
	}
	return total
}
