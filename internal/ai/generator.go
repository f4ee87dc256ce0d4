package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrGenerationTimeout means the backend produced no result within the
	// configured wall-clock limit. The underlying call keeps running in the
	// background; its result is discarded, not its work stopped.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationFailed wraps any backend-reported failure.
	ErrGenerationFailed = errors.New("generation failed")
)

// TextBackend generates text from a prompt. EchoesPrompt reports whether
// outputs include the input prompt as a prefix (decoder-only style);
// encoder-decoder style backends and chat APIs return only the new text.
type TextBackend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	EchoesPrompt() bool
}

// BoundedGenerator invokes a text backend under a hard wall-clock timeout.
// The backend call runs on its own goroutine writing to a private result
// cell; on timeout the caller returns immediately and the goroutine is
// abandoned to finish on its own. Repeated timeouts pin backend capacity
// until those calls complete.
type BoundedGenerator struct {
	backend TextBackend

	echoOnce sync.Once
	echoes   bool
}

func NewBoundedGenerator(backend TextBackend) *BoundedGenerator {
	return &BoundedGenerator{backend: backend}
}

type generationResult struct {
	text string
	err  error
}

// Generate returns the backend's output trimmed of surrounding whitespace,
// ErrGenerationTimeout after timeout, or ErrGenerationFailed on backend
// errors.
func (g *BoundedGenerator) Generate(ctx context.Context, prompt string, maxTokens int, timeout time.Duration) (string, error) {
	g.echoOnce.Do(func() {
		g.echoes = g.backend.EchoesPrompt()
	})

	// Buffered so the abandoned goroutine can always deliver and exit;
	// nothing reads the cell after a timeout.
	resultCh := make(chan generationResult, 1)
	go func() {
		// Detached from the caller: a timed-out request must not cancel
		// the in-flight backend call, only stop waiting for it.
		text, err := g.backend.Complete(context.WithoutCancel(ctx), prompt, maxTokens)
		resultCh <- generationResult{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return "", ErrGenerationTimeout
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, res.err)
		}
		text := res.text
		if g.echoes {
			text = strings.TrimPrefix(text, prompt)
		}
		return strings.TrimSpace(text), nil
	}
}
