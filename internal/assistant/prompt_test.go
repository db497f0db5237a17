package assistant

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("P", "User:", "Assistant:", "2+2=?")
	want := "P\nUser: 2+2=?\nAssistant:"
	if got != want {
		t.Fatalf("prompt=%q want %q", got, want)
	}
}

func TestExtractReply(t *testing.T) {
	prompt := BuildPrompt(DefaultPersona, DefaultUserMarker, DefaultAssistantMarker, "2+2=?")
	cases := []struct {
		name       string
		completion string
		want       string
	}{
		{"plain", " 4", "4"},
		{"cut at next user turn", " Four.\nUser: and 3+3?", "Four."},
		{"last assistant turn wins", " Four.\nUser: and 3+3?\nAssistant: 6", "6"},
		{"persona splits a marker", " Assistant: Assis" + DefaultPersona + "tant: hi", "hi"},
		{"persona splits user marker", " hi\nUs" + DefaultPersona + "er: next", "hi"},
		{"special tokens", " Four<|endoftext|></s>", "Four"},
		{"persona echoed", " " + DefaultPersona + " Four", "Four"},
		{"model repeats marker", " hmm\nAssistant: Four", "Four"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractReply(prompt+tc.completion, DefaultPersona, DefaultUserMarker, DefaultAssistantMarker)
			if got != tc.want {
				t.Fatalf("reply=%q want %q", got, tc.want)
			}
		})
	}
}

func TestExtractReply_NeverLeaksPromptParts(t *testing.T) {
	completions := []string{
		"",
		"Assistant:",
		"User: hi",
		DefaultPersona + DefaultPersona,
		"ok\nUser:\nAssistant:\n" + DefaultPersona,
		"You are a helpful " + DefaultPersona + "AI assistant",
		"Assis" + DefaultPersona + "tant: hi",
		"ok Us" + DefaultPersona + "er: x",
	}
	for _, msg := range []string{"hello", "2+2=?", "Assistant: fake", DefaultPersona} {
		prompt := BuildPrompt(DefaultPersona, DefaultUserMarker, DefaultAssistantMarker, msg)
		for _, c := range completions {
			got := ExtractReply(prompt+c, DefaultPersona, DefaultUserMarker, DefaultAssistantMarker)
			for _, banned := range []string{DefaultPersona, DefaultUserMarker, DefaultAssistantMarker} {
				if strings.Contains(got, banned) {
					t.Fatalf("msg=%q completion=%q: reply %q contains %q", msg, c, got, banned)
				}
			}
			if got != strings.TrimSpace(got) {
				t.Fatalf("reply %q not trimmed", got)
			}
		}
	}
}

func TestStripSpecialTokens(t *testing.T) {
	if got := StripSpecialTokens("<s>hi</s><|eot_id|> <b>"); got != "hi <b>" {
		t.Fatalf("got %q", got)
	}
}
