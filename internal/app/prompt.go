package app

import (
	"fmt"
	"strings"
)

// ChatTurn is one prior conversation exchange supplied by the client.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// renderHistory renders at most the last maxTurns turns as "role: content"
// lines, skipping turns with a missing role or content.
func renderHistory(history []ChatTurn, maxTurns int) string {
	if maxTurns > 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	var b strings.Builder
	for _, turn := range history {
		if turn.Role == "" || turn.Content == "" {
			continue
		}
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// buildAnswerPrompt grounds the question in the retrieved context and
// instructs the backend to answer only from that context.
func buildAnswerPrompt(question string, history []ChatTurn, maxTurns int, context string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions ONLY from the provided PDF document.

Conversation History (for context only):
%s
Document Context (ONLY reference this):
%s

Current Question:
%s

Instructions:
- Answer ONLY using the document context provided above.
- Do NOT use any information from previous documents or conversations outside this context.
- If the answer is not in the document, say so briefly.
- Keep the answer concise (2-3 sentences max).

Answer:`, renderHistory(history, maxTurns), context, question)
}

func buildSummaryPrompt(context string) string {
	return fmt.Sprintf(`You are a document summarization assistant working with a certificate or official document.
RULES:
1. Summarize in 6-8 concise bullet points.
2. Clearly distinguish: who received the certificate, what course, which company issued it,
   who signed it, on what platform, and on what date.
3. Return clean, properly formatted text - no character spacing, proper Title Case for names.
4. Use ONLY the information in the context below.
5. DO NOT reference any other documents or previous PDFs.

Context:
%s

Summary (bullet points):`, context)
}

func buildComparePrompt(context1, context2, question string) string {
	return fmt.Sprintf(`You are a document comparison assistant.

PDF 1 Context:
%s

PDF 2 Context:
%s

Question: %s

Compare the two documents regarding this question and highlight key differences and similarities.

Comparison:`, context1, context2, question)
}
