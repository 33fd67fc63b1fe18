package pipeline

import (
	"bytes"
	"fmt"
	"text/template"
)

const promptAnswerWithContext = `You are an AI assistant that answers user queries based ONLY on the provided context.

**INSTRUCTIONS:**

1.  Read the provided CONTEXT carefully.
2.  Answer the QUERY using only information found in the CONTEXT.
3.  If the CONTEXT does not contain enough information to answer the QUERY, say so explicitly instead of guessing.
4.  Quote or paraphrase the relevant passages where it helps the answer.
5.  Format your answer clearly and use formatting (like bullet points or bolding) when appropriate for readability.

**CONTEXT:**
{{.Context}}

**QUERY:**
{{.Query}}
`

const promptSummarizePage = `You are an AI assistant that summarizes web pages.

Provide a concise summary of the following page content in at most {{.MaxWords}} words. Capture the main points and any key facts or figures. Do not add information that is not present in the content.

**TITLE:**
{{.Title}}

**CONTENT:**
{{.Content}}
`

var (
	templateAnswerWithContext = template.Must(template.New("promptAnswerWithContext").Parse(promptAnswerWithContext))
	templateSummarizePage     = template.Must(template.New("promptSummarizePage").Parse(promptSummarizePage))
)

func renderAnswerPrompt(context string, query string) (string, error) {
	type templatePayload struct {
		Context string
		Query   string
	}

	var buf bytes.Buffer
	err := templateAnswerWithContext.Execute(&buf, templatePayload{Context: context, Query: query})
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template for query '%s': %w", query, err)
	}
	return buf.String(), nil
}

func renderSummaryPrompt(title string, content string, maxWords int) (string, error) {
	type templatePayload struct {
		Title    string
		Content  string
		MaxWords int
	}

	var buf bytes.Buffer
	err := templateSummarizePage.Execute(&buf, templatePayload{Title: title, Content: content, MaxWords: maxWords})
	if err != nil {
		return "", fmt.Errorf("failed to parse summary prompt template: %w", err)
	}
	return buf.String(), nil
}
