package scanning

import "strings"

// transcribePrompt is the shared prompt used by all LLM providers. The
// models act as an OCR engine only; field extraction stays in the parser.
const transcribePrompt = `You are acting as an OCR engine for a scanned invoice. Transcribe every piece of text in the image exactly as printed.

Rules:
- Keep the original reading order, top to bottom, left to right.
- Put each printed line on its own line; keep the words of one table row on the same line.
- Copy numbers, currency codes and labels verbatim (for example "2 Widget Deluxe AUD 19.99" or "Total AUD 43.98").
- Do not summarize, translate, correct, or add anything that is not printed.
- Do not use markdown or code blocks.
- If the image contains no readable text, return an empty response.`

// cleanTranscript strips markdown code fences that models add despite the prompt
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line, including any language tag
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}
