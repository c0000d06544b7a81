package generate

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// DefaultSystemPrompt instructs the model to answer only from the numbered
// context blocks and to cite them. {context} and {question} are replaced
// before sending.
const DefaultSystemPrompt = `You are an assistant for aged care providers answering questions about the Aged Care Quality Standards and related guidance.

Answer using ONLY the context below. Each context block starts with "--- CHUNK n ---" and lists its source document, pages and sections.

Rules:
- Cite every claim with the source in the form [Source: <document>, <section>, p.<page>] taken from the block you used.
- If the context does not contain the answer, say that the provided documents do not cover it. Do not guess.
- Quote requirement wording exactly when the question asks what a standard, outcome or action requires.
- Keep answers concise and practical.

Context:
{context}

Question: {question}`

// Prompts holds the overridable prompt templates.
type Prompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{SystemPrompt: DefaultSystemPrompt}
}

// LoadPrompts reads templates from a YAML file. A missing file or empty
// field keeps the built-in template.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read prompts %s: %w", path, err)
	}

	var loaded Prompts
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return p, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	if strings.TrimSpace(loaded.SystemPrompt) != "" {
		p.SystemPrompt = loaded.SystemPrompt
	}
	return p, nil
}

// BuildContext renders retrieved chunks as numbered blocks, starting at 1.
func BuildContext(chunks []document.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		pages := make([]string, len(c.PageNumbers))
		for j, p := range c.PageNumbers {
			pages[j] = strconv.Itoa(p)
		}
		sections := "N/A"
		if len(c.Sections) > 0 {
			sections = strings.Join(c.Sections, ", ")
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "--- CHUNK %d ---\n", i+1)
		fmt.Fprintf(&sb, "Source: %s\n", c.DocumentTitle)
		fmt.Fprintf(&sb, "Pages: %s\n", strings.Join(pages, ","))
		fmt.Fprintf(&sb, "Sections: %s\n\n", sections)
		sb.WriteString(c.Text)
		sb.WriteString("\n")
		parts[i] = sb.String()
	}
	return strings.Join(parts, "\n")
}

// RenderSystemPrompt fills the {context} and {question} placeholders.
func RenderSystemPrompt(template, context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(template)
}
