package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// Stage instruction templates.
const (
	QueryInputInstruction       = "query_input_system.md"
	ContentRetrieverInstruction = "content_retriever_system.md"
	DataChartInstruction        = "data_chart_system.md"
	QueryResponseInstruction    = "query_response_system.md"
	FinalTurnInstruction        = "final_turn_system.md"
)

// InstructionData is the state visible to a stage instruction.
type InstructionData struct {
	UserQuery        string
	QueryKeyParams   string
	RetrievedContent string
	ChartObjects     string
	HasCharts        bool
}

// RenderInstruction renders the named stage instruction with the given state.
func RenderInstruction(name string, data InstructionData) (string, error) {
	return render("templates/"+name, data)
}

// RenderSummarizationPrompt renders the summarization prompt using embedded Go templates
func RenderSummarizationPrompt(query, content, toolInputs string) (systemPrompt, userPrompt string, err error) {
	data := struct {
		Query      string
		Content    string
		ToolInputs string
	}{
		Query:      query,
		Content:    content,
		ToolInputs: toolInputs,
	}

	systemPrompt, err = render("templates/summarize_context_system.md", data)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render("templates/summarize_context_user.md", data)
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

func render(path string, data any) (string, error) {
	content, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", path, err)
	}

	tmpl, err := template.New(path).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", path, err)
	}
	return buf.String(), nil
}
