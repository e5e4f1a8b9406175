package agentboot

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/prompts"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"
)

// irrelevantMarker is what the summarization prompt asks the model to answer
// when a result has nothing to do with the question.
const irrelevantMarker = "# IRRELEVANT"

// ToolResultRenderer turns a tool's chunk stream into markdown sections for the
// stage transcript, optionally condensing each chunk with the mini model first.
type ToolResultRenderer struct {
	reporter  ProgressReporter
	condenser llm.LLMClient
	toolName  string
}

type ToolResultRendererOption func(*ToolResultRenderer)

func NewToolResultRenderer(opts ...ToolResultRendererOption) *ToolResultRenderer {
	r := &ToolResultRenderer{reporter: &NoOpProgressReporter{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithReporter emits a tool result event per rendered chunk, attributed to toolName.
func WithReporter(reporter ProgressReporter, toolName string) ToolResultRendererOption {
	return func(r *ToolResultRenderer) {
		r.reporter = reporter
		r.toolName = toolName
	}
}

func WithSummarizationModel(model llm.LLMClient) ToolResultRendererOption {
	return func(r *ToolResultRenderer) {
		r.condenser = model
	}
}

// Render drains chunks and returns one markdown section per surviving chunk.
// With condense set and a summarization model configured, chunks are condensed
// in parallel and the ones judged irrelevant are dropped.
func (r *ToolResultRenderer) Render(ctx context.Context, query, toolInputsMD string, chunks <-chan *schema.ToolResultChunk, condense bool) ([]string, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	sections, err := linq.Pipe4(
		linq.NewStream(streamCtx, chunks, cancel, 10),

		linq.SelectPar(func(chunk *schema.ToolResultChunk) *schema.ToolResultChunk {
			if !condense || r.condenser == nil {
				return chunk
			}
			return r.condense(streamCtx, chunk, query, toolInputsMD)
		}),

		linq.Where(func(chunk *schema.ToolResultChunk) bool {
			return chunk != nil
		}),

		linq.Select(func(chunk *schema.ToolResultChunk) string {
			r.reporter.Send(NewToolExecutionResult(r.toolName, chunk))
			return renderChunk(chunk)
		}),

		linq.ToSlice[string](),
	)

	return sections, err
}

// condense summarizes one chunk relative to the user's question. Failed chunks
// and model errors pass through unchanged; empty or irrelevant chunks become nil.
func (r *ToolResultRenderer) condense(ctx context.Context, chunk *schema.ToolResultChunk, query, toolInputs string) *schema.ToolResultChunk {
	switch {
	case chunk == nil:
		return nil
	case chunk.Error != "":
		return chunk
	case len(chunk.Sentences) == 0:
		logger.Info("Dropping empty tool result", zap.String("tool", r.toolName), zap.String("title", chunk.Title))
		return nil
	}

	systemPrompt, userPrompt, err := prompts.RenderSummarizationPrompt(query, strings.Join(chunk.Sentences, " "), toolInputs)
	if err != nil {
		logger.Error("Failed to render summarization prompt", zap.String("title", chunk.Title), zap.Error(err))
		return chunk
	}

	var out strings.Builder
	err = r.condenser.GenerateInference(
		ctx,
		[]llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		func(token string) error {
			out.WriteString(token)
			return nil
		},
		llm.WithTemperature(0.3),
		llm.WithSystemPrompt(systemPrompt),
	)
	if err != nil {
		logger.Error("Failed to summarize tool result", zap.String("title", chunk.Title), zap.Error(err))
		return chunk
	}

	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return chunk
	}
	if strings.Contains(summary, irrelevantMarker) {
		logger.Info("Dropping irrelevant tool result", zap.String("tool", r.toolName), zap.String("title", chunk.Title))
		return nil
	}

	condensed := &schema.ToolResultChunk{
		Sentences:   nonBlankLines(summary),
		Attribution: chunk.Attribution,
		Title:       chunk.Title,
		ToolName:    chunk.ToolName,
		Metadata:    map[string]string{},
	}
	maps.Copy(condensed.Metadata, chunk.Metadata)
	condensed.Metadata["summarized"] = "true"
	condensed.Metadata["original_sentence_count"] = strconv.Itoa(len(chunk.Sentences))

	return condensed
}

func nonBlankLines(s string) []string {
	var lines []string
	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// renderChunk formats a chunk as a markdown section. JSON documents, such as
// financial statement tables, are kept verbatim in fenced blocks so later
// stages can read the numbers back; prose sentences become a paragraph or list.
func renderChunk(c *schema.ToolResultChunk) string {
	if c == nil {
		return ""
	}

	var b strings.Builder

	tool := strings.TrimSpace(c.ToolName)
	heading := cmp.Or(strings.TrimSpace(c.Title), tool)
	if heading != "" {
		fmt.Fprintf(&b, "### %s\n\n", heading)
	}
	if tool != "" && tool != heading {
		fmt.Fprintf(&b, "_via `%s`_\n\n", tool)
	}

	if errText := strings.TrimSpace(c.Error); errText != "" {
		fmt.Fprintf(&b, "> **Error:** %s\n\n", errText)
	}

	writeSentences(&b, c.Sentences)

	if len(c.Metadata) > 0 {
		b.WriteString("| Key | Value |\n|---|---|\n")
		for _, k := range slices.Sorted(maps.Keys(c.Metadata)) {
			fmt.Fprintf(&b, "| %s | %s |\n", k, c.Metadata[k])
		}
		b.WriteByte('\n')
	}

	if att := strings.TrimSpace(c.Attribution); att != "" {
		fmt.Fprintf(&b, "**Attribution**: %s", att)
	}

	return b.String()
}

func writeSentences(b *strings.Builder, sentences []string) {
	var prose []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
		case isJSONDocument(s):
			fmt.Fprintf(b, "```json\n%s\n```\n\n", s)
		default:
			prose = append(prose, s)
		}
	}

	switch len(prose) {
	case 0:
	case 1:
		b.WriteString(prose[0])
		b.WriteString("\n\n")
	default:
		for _, s := range prose {
			fmt.Fprintf(b, "- %s\n", s)
		}
		b.WriteByte('\n')
	}
}

func isJSONDocument(s string) bool {
	return (s[0] == '{' || s[0] == '[') && json.Valid([]byte(s))
}
