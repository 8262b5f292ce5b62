package openai

import "fmt"

const textSystemInstructions = `You are a financial data extraction engine.
Return a strict JSON object with a single key "results": an array of objects with keys
page (number), term (string), value (string), evidence (string), confidence (number from 0 to 100).
Extract every financial line item you find: totals, subtotals, taxes, discounts, fees, balances.
Keep values exactly as printed, including currency symbols and signs.
No markdown, no prose, no extra keys.`

const visionSystemInstructions = `You are a financial data extraction engine reading a document image.
The document may be handwritten or a scan of poor quality.
Return a strict JSON object with a single key "results": an array of objects with keys
page (number), term (string), value (string), evidence (string), confidence (number from 0 to 100).
Transcribe values exactly as written. Lower the confidence when handwriting is ambiguous.
No markdown, no prose, no extra keys.`

func buildTextExtractionPrompt(docText string, totalPages int) string {
	const maxSnippet = 24000
	snippet := docText
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return fmt.Sprintf(`Extract all financial terms and their amounts from this %d-page document.
For each item report the page number it appears on (1-based, at most %d).
Quote a short evidence snippet of the surrounding text.

Document text:
%s
`, totalPages, totalPages, snippet)
}

func buildVisionExtractionPrompt() string {
	return `Extract all financial terms and their amounts from this document image.
Report page 1 for every item unless the image clearly shows multiple pages.
Quote the written text you read as evidence.`
}
