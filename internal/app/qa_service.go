package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pdfqa/internal/model"
	"pdfqa/internal/pkg/pdfextract"
	"pdfqa/internal/session"
	"pdfqa/internal/textutil"
	"pdfqa/internal/vectorindex"
)

const (
	defaultChunkSize       = 1000
	defaultChunkOverlap    = 150
	defaultAskTopK         = 4
	defaultSummaryTopK     = 6
	defaultCompareTopK     = 3
	defaultMaxHistoryTurns = 5
	defaultMaxAnswerTokens = 512
	defaultGenTimeout      = 60 * time.Second

	msgNoDocument       = "Please upload a PDF first!"
	msgNoContext        = "No relevant context found in the current PDF."
	msgNoSummaryContext = "No document context available to summarize."

	defaultCompareQuestion = "Compare these documents"
	summaryRetrievalQuery  = "Give a concise summary of the document."
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyDocument = errors.New("document is empty or has no extractable text")
	ErrNoChunks      = errors.New("no text chunks generated from the document")
)

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a prompt under a wall-clock timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, timeout time.Duration) (string, error)
}

// AnswerLogPublisher asynchronously records generated answers. May be nil.
type AnswerLogPublisher interface {
	Publish(ctx context.Context, rec model.AnswerRecord) error
}

// Options tune the retrieval pipeline; zero values fall back to defaults.
type Options struct {
	ChunkSize         int
	ChunkOverlap      int
	AskTopK           int
	SummaryTopK       int
	CompareTopK       int
	MaxHistoryTurns   int
	MaxAnswerTokens   int
	GenerationTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = defaultChunkOverlap
		if o.ChunkOverlap >= o.ChunkSize {
			o.ChunkOverlap = o.ChunkSize / 2
		}
	}
	if o.AskTopK <= 0 {
		o.AskTopK = defaultAskTopK
	}
	if o.SummaryTopK <= 0 {
		o.SummaryTopK = defaultSummaryTopK
	}
	if o.CompareTopK <= 0 {
		o.CompareTopK = defaultCompareTopK
	}
	if o.MaxHistoryTurns <= 0 {
		o.MaxHistoryTurns = defaultMaxHistoryTurns
	}
	if o.MaxAnswerTokens <= 0 {
		o.MaxAnswerTokens = defaultMaxAnswerTokens
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = defaultGenTimeout
	}
}

// QAService orchestrates ingestion (normalize, chunk, embed, index) and the
// query paths (retrieve, prompt, bounded generation, normalize) against the
// session store.
type QAService struct {
	store     *session.Store
	embedder  Embedder
	generator Generator
	publisher AnswerLogPublisher
	opts      Options
}

func NewQAService(store *session.Store, embedder Embedder, generator Generator, publisher AnswerLogPublisher, opts Options) *QAService {
	opts.applyDefaults()
	return &QAService{
		store:     store,
		embedder:  embedder,
		generator: generator,
		publisher: publisher,
		opts:      opts,
	}
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	SessionID     string
	ChunksCreated int
	UploadedAt    time.Time
}

// Ingest normalizes per-page text, splits it into overlapping chunks,
// embeds them, and atomically installs the resulting index under the
// session key, replacing any prior document.
func (s *QAService) Ingest(ctx context.Context, key string, pages []pdfextract.Page) (*IngestResult, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	var chunks []model.Chunk
	for _, page := range pages {
		text := strings.TrimSpace(textutil.NormalizeSpacedText(page.Text))
		if text == "" {
			continue
		}
		chunks = append(chunks, chunkPage(page.Number, text, s.opts.ChunkSize, s.opts.ChunkOverlap)...)
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks failed: %w", err)
	}

	index, err := vectorindex.Build(chunks, embeddings)
	if err != nil {
		return nil, err
	}

	uploadedAt := time.Now()
	s.store.Set(key, index, uploadedAt)

	return &IngestResult{
		SessionID:     key,
		ChunksCreated: len(chunks),
		UploadedAt:    uploadedAt,
	}, nil
}

// IngestPDF extracts per-page text from the PDF at path and ingests it.
func (s *QAService) IngestPDF(ctx context.Context, key, path string) (*IngestResult, error) {
	pages, err := pdfextract.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, key, pages)
}

// Outcome classifies a query result. No-document and no-context are normal,
// expected states surfaced as friendly text, not failures.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNoDocument
	OutcomeNoContext
)

// AskResult carries the answer text (or a soft informational message).
type AskResult struct {
	Text    string
	Outcome Outcome
}

// Ask answers the question from the session's document. History beyond the
// last configured turns is ignored.
func (s *QAService) Ask(ctx context.Context, key, question string, history []ChatTurn) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	if _, ok := s.store.Get(key); !ok {
		return &AskResult{Text: msgNoDocument, Outcome: OutcomeNoDocument}, nil
	}

	contextText, found, err := s.retrieve(ctx, key, question, s.opts.AskTopK)
	if err != nil {
		return nil, err
	}
	if !found {
		return &AskResult{Text: msgNoDocument, Outcome: OutcomeNoDocument}, nil
	}
	if contextText == "" {
		return &AskResult{Text: msgNoContext, Outcome: OutcomeNoContext}, nil
	}

	prompt := buildAnswerPrompt(question, history, s.opts.MaxHistoryTurns, contextText)
	raw, err := s.generator.Generate(ctx, prompt, s.opts.MaxAnswerTokens, s.opts.GenerationTimeout)
	if err != nil {
		return nil, err
	}
	answer := textutil.NormalizeAnswer(raw)

	s.logAnswer(ctx, key, "ask", question, answer)
	return &AskResult{Text: answer, Outcome: OutcomeAnswered}, nil
}

// Summarize produces a bullet-point summary of the session's document.
func (s *QAService) Summarize(ctx context.Context, key string) (*AskResult, error) {
	if _, ok := s.store.Get(key); !ok {
		return &AskResult{Text: msgNoDocument, Outcome: OutcomeNoDocument}, nil
	}

	contextText, found, err := s.retrieve(ctx, key, summaryRetrievalQuery, s.opts.SummaryTopK)
	if err != nil {
		return nil, err
	}
	if !found {
		return &AskResult{Text: msgNoDocument, Outcome: OutcomeNoDocument}, nil
	}
	if contextText == "" {
		return &AskResult{Text: msgNoSummaryContext, Outcome: OutcomeNoContext}, nil
	}

	raw, err := s.generator.Generate(ctx, buildSummaryPrompt(contextText), s.opts.MaxAnswerTokens, s.opts.GenerationTimeout)
	if err != nil {
		return nil, err
	}
	summary := textutil.NormalizeAnswer(raw)

	s.logAnswer(ctx, key, "summarize", "", summary)
	return &AskResult{Text: summary, Outcome: OutcomeAnswered}, nil
}

// Compare answers the question across two sessions' documents. Unlike the
// single-session paths, a missing session here is a hard
// session.ErrNotFound, since comparison needs both sides.
func (s *QAService) Compare(ctx context.Context, key1, key2, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = defaultCompareQuestion
	}

	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question failed: %w", err)
	}

	var context1, context2 string
	err = s.store.WithBoth(key1, key2, func(a, b session.Entry) error {
		context1 = joinChunks(a.Index.Search(queryVec, s.opts.CompareTopK))
		context2 = joinChunks(b.Index.Search(queryVec, s.opts.CompareTopK))
		return nil
	})
	if err != nil {
		return "", err
	}

	raw, err := s.generator.Generate(ctx, buildComparePrompt(context1, context2, question), s.opts.MaxAnswerTokens, s.opts.GenerationTimeout)
	if err != nil {
		return "", err
	}
	comparison := textutil.NormalizeAnswer(raw)

	s.logAnswer(ctx, key1+"|"+key2, "compare", question, comparison)
	return comparison, nil
}

// Reset clears the session. Succeeds whether or not a document was loaded.
func (s *QAService) Reset(key string) bool {
	return s.store.Clear(key)
}

// Status describes a session's current document state.
type Status struct {
	PDFLoaded  bool
	UploadedAt *time.Time
}

func (s *QAService) Status(key string) Status {
	entry, ok := s.store.Get(key)
	if !ok {
		return Status{}
	}
	at := entry.UploadedAt
	return Status{PDFLoaded: true, UploadedAt: &at}
}

// SessionCount reports the number of live sessions (growth is unbounded by
// design; this exposes it to the health endpoint).
func (s *QAService) SessionCount() int {
	return s.store.Len()
}

// retrieve embeds the query, then runs the similarity search under the
// store guard so the index cannot be replaced mid-search. The embedding
// call stays outside the guard: it never touches the index.
func (s *QAService) retrieve(ctx context.Context, key, query string, topK int) (contextText string, found bool, err error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", false, fmt.Errorf("embed question failed: %w", err)
	}

	found, err = s.store.With(key, func(e session.Entry) error {
		contextText = joinChunks(e.Index.Search(queryVec, topK))
		return nil
	})
	return contextText, found, err
}

func joinChunks(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// chunkPage splits one page's text into overlapping chunks by rune count,
// tagging each with its page number and rune offset.
func chunkPage(page int, text string, size, overlap int) []model.Chunk {
	runes := []rune(text)
	var chunks []model.Chunk
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, model.Chunk{
			Page:    page,
			Offset:  i,
			Content: string(runes[i:end]),
		})
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return chunks
}

func (s *QAService) logAnswer(ctx context.Context, sessionID, kind, question, answer string) {
	if s.publisher == nil {
		return
	}
	rec := model.AnswerRecord{
		SessionID: sessionID,
		Kind:      kind,
		Question:  question,
		Answer:    answer,
	}
	if err := s.publisher.Publish(ctx, rec); err != nil {
		log.Printf("answer log publish failed: %v", err)
	}
}
