package llm

import "encoding/json"

// charsPerToken is the usual rough ratio for English and Indonesian text.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken // round up
}

// EstimateMessageTokens counts content, tool calls and per-message framing.
func EstimateMessageTokens(m Message) int {
	tokens := 4
	tokens += EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		tokens += EstimateTokens(tc.Name)
		if params, err := json.Marshal(tc.Params); err == nil {
			tokens += EstimateTokens(string(params))
		}
		tokens += 4
	}
	if m.ToolCallID != "" {
		tokens += EstimateTokens(m.ToolCallID) + 2
	}
	return tokens
}

// EstimateRequestTokens sizes a whole Chat call: system prompt, messages and
// the serialized tool schemas.
func EstimateRequestTokens(systemPrompt string, messages []Message, tools []Tool) int {
	total := EstimateTokens(systemPrompt)
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	for _, t := range tools {
		total += EstimateTokens(t.Name) + EstimateTokens(t.Description)
		if schema, err := json.Marshal(t.Parameters); err == nil {
			total += EstimateTokens(string(schema))
		}
		total += 10
	}
	return total
}
