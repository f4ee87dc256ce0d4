package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/ai"
	"pdfqa/internal/model"
	"pdfqa/internal/pkg/pdfextract"
	"pdfqa/internal/session"
)

// stubEmbedder maps keyword counts to a fixed 3-dimensional vector, so
// retrieval is deterministic without a real embedding backend.
type stubEmbedder struct{}

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "alpha")) + 0.01,
		float32(strings.Count(lower, "beta")),
		float32(strings.Count(lower, "gamma")),
	}
}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return keywordVector(text), nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return out, nil
}

// stubGenerator records every prompt and returns a canned reply.
type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, _ int, _ time.Duration) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type recordedPublish struct {
	recs []model.AnswerRecord
	mu   sync.Mutex
}

func (p *recordedPublish) Publish(_ context.Context, rec model.AnswerRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
	return nil
}

func newTestService(gen *stubGenerator) (*QAService, *recordedPublish) {
	pub := &recordedPublish{}
	svc := NewQAService(session.NewStore(), stubEmbedder{}, gen, pub, Options{})
	return svc, pub
}

func pagesOf(texts ...string) []pdfextract.Page {
	pages := make([]pdfextract.Page, len(texts))
	for i, t := range texts {
		pages[i] = pdfextract.Page{Number: i + 1, Text: t}
	}
	return pages
}

func TestIngestEmptyDocument(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "x"})

	_, err := svc.Ingest(context.Background(), "a", nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = svc.Ingest(context.Background(), "a", pagesOf("   \n\t  "))
	assert.ErrorIs(t, err, ErrNoChunks)
}

func TestIngestReportsChunkCount(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "x"})

	res, err := svc.Ingest(context.Background(), "a", pagesOf("alpha page one", "alpha page two"))
	require.NoError(t, err)
	assert.Equal(t, "a", res.SessionID)
	assert.Equal(t, 2, res.ChunksCreated)
	assert.False(t, res.UploadedAt.IsZero())
}

func TestAskEmptyQuestion(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "x"})
	_, err := svc.Ask(context.Background(), "a", "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAskWithoutDocumentIsSoft(t *testing.T) {
	gen := &stubGenerator{reply: "should not be called"}
	svc, _ := newTestService(gen)

	res, err := svc.Ask(context.Background(), "never-ingested", "anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDocument, res.Outcome)
	assert.Equal(t, "Please upload a PDF first!", res.Text)
	assert.Empty(t, gen.prompts, "no generation for an unloaded session")
}

func TestAskAnswersFromIngestedDocument(t *testing.T) {
	gen := &stubGenerator{reply: "Answer: it is about alpha things"}
	svc, pub := newTestService(gen)

	_, err := svc.Ingest(context.Background(), "a", pagesOf("alpha certificate issued to alpha holder"))
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), "a", "what about alpha?", []ChatTurn{{Role: "user", Content: "earlier turn"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Equal(t, "it is about alpha things", res.Text) // label stripped by normalizer

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "alpha certificate issued to alpha holder")
	assert.Contains(t, prompt, "what about alpha?")
	assert.Contains(t, prompt, "user: earlier turn")

	require.Len(t, pub.recs, 1)
	assert.Equal(t, "ask", pub.recs[0].Kind)
	assert.Equal(t, "a", pub.recs[0].SessionID)
}

func TestReingestReplacesDocument(t *testing.T) {
	gen := &stubGenerator{reply: "fine"}
	svc, _ := newTestService(gen)

	first, err := svc.Ingest(context.Background(), "a", pagesOf("alpha secret from the first document"))
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "a", pagesOf("beta secret from the second document"))
	require.NoError(t, err)
	assert.False(t, second.UploadedAt.Before(first.UploadedAt))

	_, err = svc.Ask(context.Background(), "a", "tell me the secret", nil)
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "beta secret from the second document")
	assert.NotContains(t, prompt, "alpha secret", "old document must not leak after replacement")
}

func TestAskPropagatesGenerationTimeout(t *testing.T) {
	gen := &stubGenerator{err: ai.ErrGenerationTimeout}
	svc, _ := newTestService(gen)

	_, err := svc.Ingest(context.Background(), "a", pagesOf("alpha content"))
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "a", "slow?", nil)
	assert.ErrorIs(t, err, ai.ErrGenerationTimeout)
}

func TestSummarize(t *testing.T) {
	gen := &stubGenerator{reply: "- bullet one\n- bullet two"}
	svc, pub := newTestService(gen)

	res, err := svc.Summarize(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDocument, res.Outcome)

	_, err = svc.Ingest(context.Background(), "s", pagesOf("alpha certificate for a gamma course"))
	require.NoError(t, err)

	res, err = svc.Summarize(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Contains(t, gen.lastPrompt(), "alpha certificate for a gamma course")

	require.Len(t, pub.recs, 1)
	assert.Equal(t, "summarize", pub.recs[0].Kind)
}

func TestCompareMissingSessionIsHardError(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "cmp"})

	_, err := svc.Ingest(context.Background(), "left", pagesOf("alpha doc"))
	require.NoError(t, err)

	_, err = svc.Compare(context.Background(), "left", "missing", "compare them")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestCompareBothSessions(t *testing.T) {
	gen := &stubGenerator{reply: "they differ in subject"}
	svc, _ := newTestService(gen)

	_, err := svc.Ingest(context.Background(), "left", pagesOf("alpha certificate from provider one"))
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), "right", pagesOf("beta certificate from provider two"))
	require.NoError(t, err)

	got, err := svc.Compare(context.Background(), "left", "right", "")
	require.NoError(t, err)
	assert.Equal(t, "they differ in subject", got)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "alpha certificate from provider one")
	assert.Contains(t, prompt, "beta certificate from provider two")
	assert.Contains(t, prompt, "Compare these documents")
}

func TestResetNeverUsedKey(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "x"})
	assert.False(t, svc.Reset("never-used"))

	_, err := svc.Ingest(context.Background(), "a", pagesOf("alpha doc"))
	require.NoError(t, err)
	assert.True(t, svc.Reset("a"))
	assert.Equal(t, Status{}, svc.Status("a"))
}

func TestStatus(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{reply: "x"})

	st := svc.Status("a")
	assert.False(t, st.PDFLoaded)
	assert.Nil(t, st.UploadedAt)

	_, err := svc.Ingest(context.Background(), "a", pagesOf("alpha doc"))
	require.NoError(t, err)

	st = svc.Status("a")
	assert.True(t, st.PDFLoaded)
	require.NotNil(t, st.UploadedAt)
}

// Concurrent reingestion and queries against one key: every retrieved
// context must come wholly from one document generation, never a mix.
func TestConcurrentIngestAndAskSeeConsistentIndex(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	store := session.NewStore()
	svc := NewQAService(store, stubEmbedder{}, gen, nil, Options{AskTopK: 2})

	docA := pagesOf("alpha first part", "alpha second part")
	docB := pagesOf("beta first part", "beta second part")

	_, err := svc.Ingest(context.Background(), "k", docA)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			doc := docA
			if i%2 == 0 {
				doc = docB
			}
			if _, err := svc.Ingest(context.Background(), "k", doc); err != nil {
				t.Error(err)
			}
		}
		close(stop)
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := svc.Ask(context.Background(), "k", "first part?", nil); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	for _, prompt := range gen.prompts {
		hasAlpha := strings.Contains(prompt, "alpha first part")
		hasBeta := strings.Contains(prompt, "beta first part")
		if hasAlpha && hasBeta {
			t.Fatalf("prompt mixes chunks from two document generations:\n%s", prompt)
		}
	}
}
