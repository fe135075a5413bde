package tool

import (
	"fmt"
	"strings"

	"github.com/metamesh-ai/metamesh/core"
)

// SessionTool gives agents structured access to the framework around their
// run: session state, escalation, artifacts, memory and history. Strategy
// agents use it to hand intermediate results (draft solutions, evaluation
// notes) between iterations without round-tripping them through prompts.
type SessionTool struct {
	name        string
	description string
}

// NewSessionTool creates a session access tool.
func NewSessionTool() *SessionTool {
	return &SessionTool{
		name: "session",
		description: "Manages session state, escalation and framework integration. " +
			"Supports operations: get_state, set_state, escalate, save_artifact, " +
			"load_artifact, list_artifacts, search_memory, store_memory, get_history.",
	}
}

// Name returns the tool identifier.
func (t *SessionTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *SessionTool) Description() string {
	return t.description
}

// Parameters returns the JSON schema for tool parameters.
func (t *SessionTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type": "string",
				"enum": []string{
					"get_state", "set_state", "escalate",
					"save_artifact", "load_artifact", "list_artifacts",
					"search_memory", "store_memory", "get_history",
				},
				"description": "The session operation to perform",
			},
			"key": map[string]interface{}{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]interface{}{
				"description": "Value for set_state operations (any type)",
			},
			"artifact_id": map[string]interface{}{
				"type":        "string",
				"description": "Artifact identifier for artifact operations",
			},
			"data": map[string]interface{}{
				"type":        "string",
				"description": "Data for save_artifact operation",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query for memory operations",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to store in memory",
			},
			"metadata": map[string]interface{}{
				"type":        "object",
				"description": "Metadata for memory storage",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Limit for search operations (default: 10)",
				"default":     10,
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *SessionTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.handleGetState(args, toolCtx)
	case "set_state":
		return t.handleSetState(args, toolCtx)
	case "escalate":
		return t.handleEscalate(toolCtx)
	case "save_artifact":
		return t.handleSaveArtifact(args, toolCtx)
	case "load_artifact":
		return t.handleLoadArtifact(args, toolCtx)
	case "list_artifacts":
		return t.handleListArtifacts(toolCtx)
	case "search_memory":
		return t.handleSearchMemory(args, toolCtx)
	case "store_memory":
		return t.handleStoreMemory(args, toolCtx)
	case "get_history":
		return t.handleGetHistory(toolCtx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func (t *SessionTool) handleGetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for get_state operation")
	}

	value, exists := toolCtx.GetState(key)
	return map[string]interface{}{
		"key":    key,
		"exists": exists,
		"value":  value,
	}, nil
}

func (t *SessionTool) handleSetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for set_state operation")
	}

	value := args["value"] // Can be any type
	toolCtx.SetState(key, value)

	return map[string]interface{}{
		"key":     key,
		"value":   value,
		"success": true,
	}, nil
}

func (t *SessionTool) handleEscalate(toolCtx *core.ToolContext) (interface{}, error) {
	toolCtx.Escalate()

	return map[string]interface{}{
		"success": true,
		"message": "Escalation initiated",
	}, nil
}

func (t *SessionTool) handleSaveArtifact(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	artifactID, ok := args["artifact_id"].(string)
	if !ok {
		return nil, fmt.Errorf("artifact_id parameter is required for save_artifact operation")
	}

	dataStr, ok := args["data"].(string)
	if !ok {
		return nil, fmt.Errorf("data parameter is required for save_artifact operation")
	}

	data := []byte(dataStr)
	if err := toolCtx.SaveArtifact(artifactID, data); err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	return map[string]interface{}{
		"artifact_id": artifactID,
		"size":        len(data),
		"success":     true,
	}, nil
}

func (t *SessionTool) handleLoadArtifact(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	artifactID, ok := args["artifact_id"].(string)
	if !ok {
		return nil, fmt.Errorf("artifact_id parameter is required for load_artifact operation")
	}

	data, err := toolCtx.LoadArtifact(artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	return map[string]interface{}{
		"artifact_id": artifactID,
		"data":        string(data),
		"size":        len(data),
		"success":     true,
	}, nil
}

func (t *SessionTool) handleListArtifacts(toolCtx *core.ToolContext) (interface{}, error) {
	artifacts, err := toolCtx.ListArtifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	return map[string]interface{}{
		"artifacts": artifacts,
		"count":     len(artifacts),
		"success":   true,
	}, nil
}

func (t *SessionTool) handleSearchMemory(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	query, ok := args["query"].(string)
	if !ok {
		return nil, fmt.Errorf("query parameter is required for search_memory operation")
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	results, err := toolCtx.SearchMemory(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory: %w", err)
	}

	return map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
		"success": true,
	}, nil
}

func (t *SessionTool) handleStoreMemory(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content parameter is required for store_memory operation")
	}

	metadata := make(map[string]interface{})
	if m, ok := args["metadata"].(map[string]interface{}); ok {
		metadata = m
	}

	if err := toolCtx.StoreMemory(content, metadata); err != nil {
		return nil, fmt.Errorf("failed to store memory: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"message": "Memory stored successfully",
	}, nil
}

func (t *SessionTool) handleGetHistory(toolCtx *core.ToolContext) (interface{}, error) {
	history := toolCtx.GetSessionHistory()

	events := make([]map[string]interface{}, len(history))
	for i, ev := range history {
		events[i] = map[string]interface{}{
			"id":          ev.ID,
			"author":      ev.Author,
			"timestamp":   ev.Timestamp,
			"partial":     ev.Partial,
			"has_content": ev.Content != nil,
		}
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			var contentSummary []string
			for _, part := range ev.Content.Parts {
				switch p := part.(type) {
				case core.TextPart:
					preview := p.Text
					if len(preview) > 100 {
						preview = preview[:100] + "..."
					}
					contentSummary = append(contentSummary, fmt.Sprintf("text: %s", preview))
				case core.FunctionCallPart:
					contentSummary = append(contentSummary, fmt.Sprintf("function_call: %s", p.FunctionCall.Name))
				case core.FunctionResponsePart:
					contentSummary = append(contentSummary, fmt.Sprintf("function_response: %s", p.FunctionResponse.Name))
				default:
					contentSummary = append(contentSummary, "other")
				}
			}
			events[i]["content_summary"] = strings.Join(contentSummary, ", ")
		}
	}

	return map[string]interface{}{
		"events":  events,
		"count":   len(events),
		"success": true,
	}, nil
}
