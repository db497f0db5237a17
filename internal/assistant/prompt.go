package assistant

import "strings"

// specialTokens are dropped from provider output before extraction.
var specialTokens = []string{
	"<|endoftext|>", "<|im_start|>", "<|im_end|>", "<|eot_id|>",
	"<|begin_of_text|>", "<|end_of_text|>", "<s>", "</s>", "<pad>", "<unk>",
}

// BuildPrompt formats the persona and the user message into the completion
// prompt, ending with the assistant marker the model continues from.
func BuildPrompt(persona, userMarker, assistantMarker, message string) string {
	var b strings.Builder
	b.Grow(len(persona) + len(userMarker) + len(assistantMarker) + len(message) + 3)
	b.WriteString(persona)
	b.WriteByte('\n')
	b.WriteString(userMarker)
	b.WriteByte(' ')
	b.WriteString(message)
	b.WriteByte('\n')
	b.WriteString(assistantMarker)
	return b.String()
}

// ExtractReply returns the reply part of a full decoded transcript
// (prompt followed by completion): the text after the last assistant marker,
// up to the next user marker, with persona text removed and whitespace trimmed.
// The cuts repeat until none applies, since removing the persona can join the
// text around it into a marker.
func ExtractReply(text, persona, userMarker, assistantMarker string) string {
	text = StripSpecialTokens(text)
	for {
		prev := text
		if persona != "" {
			text = strings.ReplaceAll(text, persona, "")
		}
		if assistantMarker != "" {
			if i := strings.LastIndex(text, assistantMarker); i >= 0 {
				text = text[i+len(assistantMarker):]
			}
		}
		if userMarker != "" {
			if i := strings.Index(text, userMarker); i >= 0 {
				text = text[:i]
			}
		}
		if text == prev {
			break
		}
	}
	return strings.TrimSpace(text)
}

// StripSpecialTokens removes tokenizer control tokens from decoded text.
func StripSpecialTokens(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	for _, t := range specialTokens {
		s = strings.ReplaceAll(s, t, "")
	}
	return s
}
