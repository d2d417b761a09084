// Package tokens estimates prompt sizes for logging and interaction
// records. OpenAI-family models get tiktoken counts; everything else falls
// back to a character-based estimate. Counts are observational only.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/aide-lsp/aide/internal/domain"
)

// charsPerToken is the fallback average used for non-OpenAI models.
const charsPerToken = 4.0

// Counter estimates input token counts for a message sequence.
type Counter struct {
	mu         sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates a counter with an empty codec cache.
func NewCounter() *Counter {
	return &Counter{codecCache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

// Estimate returns the approximate input token count for messages against
// model. It never fails; when no tokenizer applies it estimates from
// character counts.
func (c *Counter) Estimate(model string, messages []domain.Message) int {
	if codec := c.codecFor(model); codec != nil {
		// 3 tokens of framing per message plus 1 for the role, plus
		// 3 for assistant priming, per OpenAI's counting guidance.
		total := 3
		for _, m := range messages {
			total += 4
			if ids, _, err := codec.Encode(m.Content); err == nil {
				total += len(ids)
			}
		}
		return total
	}

	chars := 0
	for _, m := range messages {
		chars += len(m.Role) + len(m.Content) + 4
	}
	return int(float64(chars) / charsPerToken)
}

// codecFor returns a tiktoken codec for OpenAI-family models, nil otherwise.
func (c *Counter) codecFor(model string) tokenizer.Codec {
	lower := strings.ToLower(model)
	var encoding tokenizer.Encoding
	switch {
	case strings.HasPrefix(lower, "gpt-4o"), strings.HasPrefix(lower, "gpt-4.1"),
		strings.HasPrefix(lower, "gpt-5"), strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"), strings.HasPrefix(lower, "o4"):
		encoding = tokenizer.O200kBase
	case strings.HasPrefix(lower, "gpt-4"), strings.HasPrefix(lower, "gpt-3.5"):
		encoding = tokenizer.Cl100kBase
	default:
		return nil
	}

	c.mu.RLock()
	codec, ok := c.codecCache[encoding]
	c.mu.RUnlock()
	if ok {
		return codec
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	c.codecCache[encoding] = codec
	c.mu.Unlock()
	return codec
}
