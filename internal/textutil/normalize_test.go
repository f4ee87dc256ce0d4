package textutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpacedText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"certificate name", "J A I N I   S O L A N K I", "JAINI   SOLANKI"},
		{"acronym", "issued by I B M on Coursera", "issued by IBM on Coursera"},
		{"platform", "N P T E L", "NPTEL"},
		{"ordinary words untouched", "hello world", "hello world"},
		{"two singletons untouched", "a b", "a b"},
		{"mixed", "the I B M course", "the IBM course"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeSpacedText(tc.in))
		})
	}
}

func TestNormalizeSpacedTextIdempotent(t *testing.T) {
	inputs := []string{
		"J A I N I   S O L A N K I",
		"I B M certificate for A B C D",
		"hello world",
		"x y z a b c",
		"A B",
	}
	for _, in := range inputs {
		once := NormalizeSpacedText(in)
		assert.Equal(t, once, NormalizeSpacedText(once), "input %q", in)
	}
}

func TestNormalizeSpacedTextRemovesSingletonRuns(t *testing.T) {
	out := NormalizeSpacedText("J A I N I   S O L A N K I")
	run := regexp.MustCompile(`(?:[A-Za-z] ){2,}[A-Za-z]`)
	assert.False(t, run.MatchString(out), "output %q still has spaced runs", out)
}

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"strips answer label", "Answer: the course was issued by IBM", "the course was issued by IBM"},
		{"strips qualified answer label", "Answer (brief): yes", "yes"},
		{"strips context label case-insensitive", "CONTEXT: something", "something"},
		{"strips question label", "Question: what is it", "what is it"},
		{"collapses spaces", "too   many    spaces", "too many spaces"},
		{"collapses newlines", "a\n\n\n\n\nb", "a\n\nb"},
		{"keeps double newline", "a\n\nb", "a\n\nb"},
		{"trims", "  padded  ", "padded"},
		{"spaced text repaired", "Answer: N P T E L certificate", "NPTEL certificate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeAnswer(tc.in))
		})
	}
}

func TestNormalizeAnswerIdempotent(t *testing.T) {
	inputs := []string{
		"Answer: the  answer\n\n\n\nwith   gaps",
		"plain text",
		"Question: echoed question",
	}
	for _, in := range inputs {
		once := NormalizeAnswer(in)
		assert.Equal(t, once, NormalizeAnswer(once), "input %q", in)
	}
}
