package llm

import "strings"

// maxPromptChars caps how much protocol text goes to the model. Eligibility
// sections sit in the first quarter of most protocols; the cap keeps the
// request inside context limits for very long documents.
const maxPromptChars = 48000

// SystemPrompt is the instruction block sent alongside every extraction
// request. Providers prepend it as the system message.
func SystemPrompt() string {
	parts := []string{
		"You are an expert clinical trial protocol analyst.",
		"Extract every inclusion criterion and every exclusion criterion from the protocol text, verbatim.",
		"Do not add, infer, or fabricate criteria that are not explicitly present.",
		"Keep each criterion complete but concise.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(text string) string {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	var b strings.Builder
	b.WriteString("Protocol text begins here:\n")
	b.WriteString(text)
	b.WriteString("\nProtocol text ends here.")
	return b.String()
}
