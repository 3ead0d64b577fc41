package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplatePrompt asks for an HTML contract template with {{placeholder}} markers.
func TemplatePrompt(description string, placeholders []string, tone, language string) string {
	if tone == "" {
		tone = "professional"
	}
	if language == "" {
		language = "English"
	}

	var b strings.Builder
	b.WriteString("You are an assistant that generates HTML contract templates for a construction company (AEMCO).\n")
	b.WriteString("Return strictly valid semantic HTML only, without markdown fences.\n")
	b.WriteString("Use <h1>, <h2>, <p>, <ul>, <li>, <table> where appropriate.\n")
	b.WriteString("Include placeholders wrapped in double curly braces like {{provider_name}}, {{amount}} if relevant.\n")
	fmt.Fprintf(&b, "Tone: %s. Language: %s.\n", tone, language)
	fmt.Fprintf(&b, "Context: %s.\n", description)
	if len(placeholders) > 0 {
		fmt.Fprintf(&b, "Make sure these placeholders appear where appropriate: %s.", strings.Join(placeholders, ", "))
	}
	return strings.TrimSpace(b.String())
}

// ContractPrompt asks for a complete HTML contract body built from a template summary.
func ContractPrompt(templateSummary string, variables map[string]string, requirements string) string {
	vars := "{}"
	if len(variables) > 0 {
		if raw, err := json.Marshal(variables); err == nil {
			vars = string(raw)
		}
	}

	var b strings.Builder
	b.WriteString("Generate a complete HTML contract body for a construction company (AEMCO) using the following details.\n")
	b.WriteString("Return strictly raw HTML only (no markdown), well-structured and ready to render in a rich text editor.\n")
	fmt.Fprintf(&b, "Template Summary: %s\n", templateSummary)
	fmt.Fprintf(&b, "Variables (JSON): %s\n", vars)
	fmt.Fprintf(&b, "Additional Requirements: %s", requirements)
	return b.String()
}
