package ai

// ModelInfo describes one model a provider serves.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextTokens int    `json:"context_tokens"`
	Reasoning     bool   `json:"reasoning"`
}

// Capabilities is the static feature surface of a provider, frozen at
// construction time.
type Capabilities struct {
	Streaming        bool        `json:"streaming"`
	Reasoning        bool        `json:"reasoning"`
	Multimodal       bool        `json:"multimodal"`
	Search           bool        `json:"search"`
	MaxContextTokens int         `json:"max_context_tokens"`
	Models           []ModelInfo `json:"models"`
}

// SupportsModel reports whether id appears in the provider's model table.
// Providers with an empty table accept any model id.
func (c Capabilities) SupportsModel(id string) bool {
	if len(c.Models) == 0 {
		return true
	}
	for _, model := range c.Models {
		if model.ID == id {
			return true
		}
	}
	return false
}

// ModelIDs lists the ids of every model in the table.
func (c Capabilities) ModelIDs() []string {
	ids := make([]string, 0, len(c.Models))
	for _, model := range c.Models {
		ids = append(ids, model.ID)
	}
	return ids
}
