package llm

import "fmt"

// continuationTemplate is the fixed instructional prompt for paragraph
// continuation. The user text is embedded verbatim.
const continuationTemplate = `You are a skilled writing assistant. Continue or expand the following text with a coherent paragraph of 4 to 6 sentences. Match the tone, voice, and style of the original. Do not repeat the original text, do not add headings or commentary; respond with the continuation only.

Text:
%s`

// BuildContinuationPrompt embeds the user text in the continuation template.
func BuildContinuationPrompt(text string) string {
	return fmt.Sprintf(continuationTemplate, text)
}
