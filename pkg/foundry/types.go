package foundry

import "strings"

// Agent is a server-side agent definition.
type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// AgentParams describes the agent to create.
type AgentParams struct {
	Model        string           `json:"model"`
	Name         string           `json:"name"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// ToolDefinition is a platform-hosted tool attached to an agent. The platform
// dispatches these server-side; the client never executes them.
type ToolDefinition struct {
	Type         string              `json:"type"`
	DeepResearch *DeepResearchParams `json:"deep_research,omitempty"`
}

// DeepResearchParams configures the hosted deep-research tool.
type DeepResearchParams struct {
	Model             string              `json:"deep_research_model"`
	BingGroundingList []GroundingResource `json:"deep_research_bing_grounding_connections,omitempty"`
}

// GroundingResource names a web-grounding connection by project connection id.
type GroundingResource struct {
	ConnectionID string `json:"connection_id"`
}

// DeepResearchTool builds the tool definition for a research-capable agent:
// the research model runs server-side and grounds its browsing through the
// named connection.
func DeepResearchTool(connectionID, model string) ToolDefinition {
	return ToolDefinition{
		Type: "deep_research",
		DeepResearch: &DeepResearchParams{
			Model:             model,
			BingGroundingList: []GroundingResource{{ConnectionID: connectionID}},
		},
	}
}

// Connection is a named project resource, e.g. a web-grounding connection.
type Connection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Thread is a server-side conversation container.
type Thread struct {
	ID string `json:"id"`
}

// URLCitation is a source reference attached to message text.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// TextSegment is one text block of a message with its citations.
type TextSegment struct {
	Value     string
	Citations []URLCitation
}

// Message is a thread message with its text content decoded. Non-text
// content blocks are skipped.
type Message struct {
	ID           string
	Role         string
	TextSegments []TextSegment
}

// Text joins all text segments with blank lines.
func (m Message) Text() string {
	parts := make([]string, 0, len(m.TextSegments))
	for _, seg := range m.TextSegments {
		parts = append(parts, seg.Value)
	}
	return strings.Join(parts, "\n\n")
}

// URLCitations collects the citations of every segment in order.
func (m Message) URLCitations() []URLCitation {
	var all []URLCitation
	for _, seg := range m.TextSegments {
		all = append(all, seg.Citations...)
	}
	return all
}

// wireMessage is the REST shape of a thread message.
type wireMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text *struct {
			Value       string `json:"value"`
			Annotations []struct {
				Type        string       `json:"type"`
				URLCitation *URLCitation `json:"url_citation"`
			} `json:"annotations"`
		} `json:"text"`
	} `json:"content"`
}

func (w wireMessage) decode() Message {
	msg := Message{ID: w.ID, Role: w.Role}
	for _, block := range w.Content {
		if block.Type != "text" || block.Text == nil {
			continue
		}
		seg := TextSegment{Value: block.Text.Value}
		for _, ann := range block.Text.Annotations {
			if ann.Type == "url_citation" && ann.URLCitation != nil {
				seg.Citations = append(seg.Citations, *ann.URLCitation)
			}
		}
		msg.TextSegments = append(msg.TextSegments, seg)
	}
	return msg
}
