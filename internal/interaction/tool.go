package interaction

import (
	"fmt"
	"strings"
)

// Tool decides what a press on the canvas does.
type Tool int

const (
	// ToolCursor selects, drags, resizes and rotates.
	ToolCursor Tool = iota
	// ToolPan drags the viewport.
	ToolPan
	// ToolText places a text element.
	ToolText
	// ToolLabel places a data-bound label.
	ToolLabel
)

var toolNames = [...]string{"cursor", "pan", "text", "label"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool accepts a tool name.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range toolNames {
		if n == s {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}
