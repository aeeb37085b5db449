package openai

import (
	json "github.com/goccy/go-json"

	"github.com/chorushq/chorus/providers/ai"
)

/*
	RESPONSES API - REQUEST
*/

// responseRequest is the body for the /v1/responses endpoint.
type responseRequest struct {
	Model              string            `json:"model"`
	Input              []inputItem       `json:"input"`
	Stream             bool              `json:"stream,omitempty"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
	MaxOutputTokens    *int              `json:"max_output_tokens,omitempty"`
	Temperature        *float64          `json:"temperature,omitempty"`
	TopP               *float64          `json:"top_p,omitempty"`
	Reasoning          *reasoningRequest `json:"reasoning,omitempty"`
	Tools              []responseTool    `json:"tools,omitempty"`
}

// inputItem is one conversation turn in the request input array.
type inputItem struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is a typed text part. The type tag depends on who produced
// the turn: model output replays as output_text, everything else is
// input_text.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// reasoningRequest configures effort and summary emission for
// reasoning-capable models.
type reasoningRequest struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// responseTool enables a hosted tool such as web_search.
type responseTool struct {
	Type string `json:"type"`
}

// buildRequest maps the normalized conversation into a Responses API body.
// With a previous response id only the newest user message is sent; the
// server replays the rest of the conversation from its own state.
func buildRequest(messages []ai.Message, config ai.OpenAIConfig, options *ai.StreamOptions) responseRequest {
	request := responseRequest{Model: config.Model}

	input := messages
	if options != nil && options.PreviousResponseID != "" {
		request.PreviousResponseID = options.PreviousResponseID
		input = newestUserMessage(messages)
	}

	for _, message := range input {
		request.Input = append(request.Input, inputItem{
			Role:    requestRole(message.Role),
			Content: []contentPart{{Type: partType(message.Role), Text: message.Content}},
		})
	}

	if config.ReasoningEffort != "" || config.ReasoningSummary != "" {
		request.Reasoning = &reasoningRequest{
			Effort:  config.ReasoningEffort,
			Summary: config.ReasoningSummary,
		}
	}
	if config.WebSearch {
		request.Tools = append(request.Tools, responseTool{Type: "web_search"})
	}

	if options != nil {
		if options.MaxTokens > 0 {
			maxTokens := options.MaxTokens
			request.MaxOutputTokens = &maxTokens
		}
		request.Temperature = options.Temperature
		request.TopP = options.TopP
	}

	return request
}

// newestUserMessage returns the last user turn as a single-element slice,
// falling back to the last message when the conversation has no user turn.
func newestUserMessage(messages []ai.Message) []ai.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.RoleUser {
			return messages[i : i+1]
		}
	}
	return messages[len(messages)-1:]
}

// requestRole maps normalized roles onto the Responses API vocabulary.
// System instructions travel under the developer role.
func requestRole(role ai.MessageRole) string {
	if role == ai.RoleSystem {
		return "developer"
	}
	return string(role)
}

// partType picks the content-part tag for a turn. Assistant turns replay
// model output, so they carry output_text parts.
func partType(role ai.MessageRole) string {
	if role == ai.RoleAssistant {
		return "output_text"
	}
	return "input_text"
}

/*
	RESPONSES API - STREAM EVENTS
*/

// streamEvent is the decoded body of one typed SSE event. Only the fields
// the processor classifies on are mapped; everything else is ignored.
type streamEvent struct {
	Type       string          `json:"type"`
	Delta      json.RawMessage `json:"delta,omitempty"`
	ItemID     string          `json:"item_id,omitempty"`
	Annotation *annotation     `json:"annotation,omitempty"`
	Item       *outputItem     `json:"item,omitempty"`
	Response   *responseObject `json:"response,omitempty"`
}

// outputItem is a completed element of the response output array, delivered
// whole by response.output_item.done events.
type outputItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Status  string          `json:"status,omitempty"`
	Role    string          `json:"role,omitempty"`
	Content []outputContent `json:"content,omitempty"`
	Summary []summaryPart   `json:"summary,omitempty"`
	Action  *searchAction   `json:"action,omitempty"`
}

// summaryText joins the item's reasoning summary parts into one block.
func (item *outputItem) summaryText() string {
	var text string
	for _, part := range item.Summary {
		if part.Text == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += part.Text
	}
	return text
}

// outputContent is one typed content part of a message output item.
type outputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []annotation `json:"annotations,omitempty"`
}

// annotation is a url_citation attached to output text.
type annotation struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// summaryPart is one summary_text block of a reasoning item.
type summaryPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// searchAction describes what a web_search_call item actually searched for.
type searchAction struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// responseObject is the response snapshot carried by lifecycle events
// (response.created, response.completed, response.incomplete) and returned
// whole by the synchronous endpoint.
type responseObject struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"`
	CreatedAt         float64            `json:"created_at"`
	Model             string             `json:"model"`
	Status            string             `json:"status"`
	Output            []outputItem       `json:"output,omitempty"`
	Usage             *responseUsage     `json:"usage,omitempty"`
	IncompleteDetails *incompleteDetails `json:"incomplete_details,omitempty"`
}

// responseUsage is the Responses API token accounting.
type responseUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	TotalTokens         int `json:"total_tokens"`
	OutputTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"output_tokens_details,omitempty"`
}

// incompleteDetails explains why a response ended before completion.
type incompleteDetails struct {
	Reason string `json:"reason"`
}

// normalizeUsage copies the vendor's accounting verbatim onto the
// normalized shape.
func normalizeUsage(usage *responseUsage) *ai.Usage {
	if usage == nil {
		return nil
	}
	normalized := &ai.Usage{
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
		TotalTokens:      usage.TotalTokens,
	}
	if usage.OutputTokensDetails != nil {
		normalized.ThinkingTokens = usage.OutputTokensDetails.ReasoningTokens
	}
	return normalized
}

// normalizeFinish maps a response status to the normalized finish reason.
// Incomplete responses distinguish token-limit cuts from filtered output;
// reasons outside the known set pass through verbatim.
func normalizeFinish(response *responseObject) ai.FinishReason {
	if response != nil && response.IncompleteDetails != nil {
		switch reason := response.IncompleteDetails.Reason; reason {
		case "max_output_tokens":
			return ai.FinishLength
		case "content_filter":
			return ai.FinishContentFilter
		case "":
		default:
			return ai.FinishReason(reason)
		}
	}
	return ai.FinishStop
}
