package internal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UpdateManimCode asks the model to rewrite property values inside
// existing code without touching its structure. Unlike code generation
// this is lenient: a response without a fenced block is taken as the
// code itself rather than rejected.
func UpdateManimCode(client *OpenAIClient, code string, properties map[string]any, history []string) (string, error) {
	chatReq := ChatRequest{
		Model: chatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: buildUpdatePrompt(code, properties, history)},
		},
		// Low temperature: value substitution should be deterministic.
		Temperature: 0.2,
	}

	content, err := client.Complete(chatReq, "")
	if err != nil {
		return "", err
	}

	updated, ok := ExtractBlock(content, "python")
	if !ok {
		updated = strings.TrimSpace(content)
	}
	return TrimToImport(updated), nil
}

// buildUpdatePrompt assembles the single instruction turn: prior
// versions labeled by ordinal, the current code, and the target values
// as pretty-printed JSON.
func buildUpdatePrompt(code string, properties map[string]any, history []string) string {
	var b strings.Builder

	b.WriteString("You are a Manim code editor. Given the following Manim code and a JSON object of updated property values, update the code so that the property values match the JSON. Only change the values, do not change the structure or add new properties.\n\n")

	if len(history) > 0 {
		b.WriteString("Here is the previous code history for context:\n")
		for i, prev := range history {
			fmt.Fprintf(&b, "Previous code version %d:\n%s\n\n", i+1, prev)
		}
	}

	fmt.Fprintf(&b, "Manim code:\n%s\n\n", code)

	propsJSON, err := json.MarshalIndent(properties, "", "  ")
	if err != nil {
		propsJSON = []byte("{}")
	}
	fmt.Fprintf(&b, "Updated properties:\n%s\n\n", propsJSON)

	b.WriteString("Return only the updated Manim code.")
	return b.String()
}
