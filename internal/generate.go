package internal

import (
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"
)

// ErrCodeExtraction is returned when the model response carries no
// python-fenced code block.
var ErrCodeExtraction = errors.New("failed to extract code from response")

// codeGenSystemPrompt instructs the model to answer with exactly two
// fenced blocks: the Manim script and the editable-property metadata.
const codeGenSystemPrompt = `You are a Manim code generator. Generate Manim code based on the user's description.

- Always return your response in two blocks:
  1. A Python code block (` + "```python" + `) with the Manim code.
     - Always start with 'from manim import *' to import everything from manim.
     - For any property that should be editable (like font size, color, position, etc.), define a variable at the top (e.g., font_size = 48) make sure to always add position, scaling, rotation and opacity to each manim item, and use it in the code (e.g., font_size=font_size).
     - Use f-strings only for string properties that should be editable.
     - Always import all constants, classes, and animations you use, including color constants (e.g., BLUE, RED), animation classes (e.g., Create, Write), and any other required objects from manim.
  2. A JSON code block (` + "```json" + `) with the metadata for each animation component, including all properties and their types, values, and constraints.
     - The JSON should match this format:
       [
         {
           "id": "unique_id",
           "type": "text|shape|transform",
           "start": start_time,
           "duration": duration,
           "properties": {
             "property_name": {
               "position": "x,y,z",
               "scaling": "x,y,z",
               "rotation": "x,y,z",
               "opacity": "0.0-1.0",
               "color": "color_name",
               "type": "number|string|color|boolean|position",
               "value": value,
               "min": min_value,
               "max": max_value,
               "step": step_value,
               "options": ["option1", "option2"],
               "multiline": true,
               "label": "Label"
             }
           }
         }
       ]
- Always return both the code and the JSON metadata.`

// GenerateManimCode asks the model for a Manim script plus property
// metadata. A missing python block is a hard failure; missing or
// malformed metadata degrades to an empty sequence.
func GenerateManimCode(client *OpenAIClient, prompt, apiKey string) (string, []PropertyBlock, error) {
	chatReq := ChatRequest{
		Model: chatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: codeGenSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	content, err := client.Complete(chatReq, apiKey)
	if err != nil {
		return "", nil, err
	}

	code, ok := ExtractBlock(content, "python")
	if !ok {
		return "", nil, ErrCodeExtraction
	}
	code = TrimToImport(code)

	return code, parseMetadata(content), nil
}

// parseMetadata pulls the json-fenced block out of a model response.
// Anything that does not decode is treated as absent, never as an
// error: the code alone is still useful to the caller.
func parseMetadata(content string) []PropertyBlock {
	raw, ok := ExtractBlock(content, "json")
	if !ok {
		return []PropertyBlock{}
	}

	var blocks []PropertyBlock
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		log.Warnf("[GENERATE] Discarding unparseable metadata block: %v", err)
		return []PropertyBlock{}
	}

	return filterMetadata(blocks)
}

// filterMetadata drops entries that break the metadata contract:
// duplicate IDs, unknown component types, negative timings.
func filterMetadata(blocks []PropertyBlock) []PropertyBlock {
	valid := make([]PropertyBlock, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))

	for _, b := range blocks {
		switch {
		case b.ID == "" || seen[b.ID]:
			log.Warnf("[GENERATE] Dropping metadata entry with duplicate or empty id %q", b.ID)
		case b.Type != "text" && b.Type != "shape" && b.Type != "transform":
			log.Warnf("[GENERATE] Dropping metadata entry %q with unknown type %q", b.ID, b.Type)
		case b.Start < 0 || b.Duration < 0:
			log.Warnf("[GENERATE] Dropping metadata entry %q with negative timing", b.ID)
		default:
			seen[b.ID] = true
			valid = append(valid, b)
		}
	}

	return valid
}
