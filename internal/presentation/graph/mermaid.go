package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/steps"
)

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	// Current is the index of the step to mark as current, or -1.
	Current int
	// Undone lists the kinds that can be redone, oldest first.
	Undone []domain.StepKind
}

// GenerateMermaid produces a Mermaid flowchart of an analysis log.
// It applies semantic styling:
// - Initial datasets: ((Circle))
// - Concat: [[Subroutine]]
// - Dtype change: [/Parallelogram/]
// - Formula: [Rectangle]
// Refreshes are drawn as dotted edges from the step that caused them to the
// derived step they recomputed. labels[i], when present, replaces the kind
// as the text of step i.
func GenerateMermaid(log []*steps.Step, labels []string, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    initial((\"initial\"))\n")

	prev := "initial"
	var warned []string
	for i, s := range log {
		id := stepNodeID(i)
		label := string(s.Kind)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		label = escapeLabel(label)
		if c := s.Exec.Coercion; c != nil && c.Failed > 0 {
			label = fmt.Sprintf("%s <br/> ⚠ %d not converted", label, c.Failed)
			warned = append(warned, id)
		}

		opener, closer := shape(s.Kind)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		for _, r := range s.Refreshes {
			fmt.Fprintf(&sb, "    %s -. \"refresh\" .-> %s\n", id, stepNodeID(r.StepIndex))
		}
		prev = id
	}

	if overlay != nil {
		for i, kind := range overlay.Undone {
			id := fmt.Sprintf("undone%d", i)
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, escapeLabel(string(kind)))
			fmt.Fprintf(&sb, "    %s -.- %s\n", prev, id)
			prev = id
		}
	}

	if len(warned) == 0 && overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) so labels stay readable on both themes.
	sb.WriteString("    classDef warn fill:#fff3e0,stroke:#e65100,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef undone fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
	for _, id := range warned {
		fmt.Fprintf(&sb, "    class %s warn;\n", id)
	}
	if overlay != nil {
		for i := range overlay.Undone {
			fmt.Fprintf(&sb, "    class undone%d undone;\n", i)
		}
		if overlay.Current >= 0 && overlay.Current < len(log) {
			fmt.Fprintf(&sb, "    class %s current;\n", stepNodeID(overlay.Current))
		}
	}
	return sb.String()
}

func shape(kind domain.StepKind) (string, string) {
	switch kind {
	case steps.KindConcat:
		return "[[", "]]"
	case steps.KindChangeColumnDtype:
		return "[/", "/]"
	default:
		return "[", "]"
	}
}

func stepNodeID(i int) string { return fmt.Sprintf("step%d", i) }

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
