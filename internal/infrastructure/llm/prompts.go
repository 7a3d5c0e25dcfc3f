package llm

import "strings"

const (
	defaultMaxTokens     = 2048
	defaultSummaryPrompt = "You are a helpful assistant that summarizes news articles concisely. Output format: Summary: <summary>"
	defaultReportPrompt  = "You are a financial analyst. Generate a concise daily news report based on the provided summaries. Highlight key trends or important events."
	placeholderReport    = "Placeholder Daily Report: LLM API key not configured."
	previewRunes         = 100
)

func summaryRequest(text string) string {
	return "Please summarize the following news article:\n\n" + text
}

func reportRequest(digest string) string {
	return "Here are the news summaries for today:\n\n" + digest + "\n\nPlease generate a comprehensive daily report."
}

func summaryPrompt(prompt string) string {
	if prompt = strings.TrimSpace(prompt); prompt == "" {
		return defaultSummaryPrompt
	}
	return prompt
}

func reportPrompt(prompt string) string {
	if prompt = strings.TrimSpace(prompt); prompt == "" {
		return defaultReportPrompt
	}
	return prompt
}

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

// preview returns at most n runes of text.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
