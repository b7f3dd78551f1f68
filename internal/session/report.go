// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// buildReport renders the final session analysis as markdown. The report is
// presentation only; programmatic consumers read the SessionResult fields.
func buildReport(result *types.SessionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Session Report\n\n")
	fmt.Fprintf(&b, "**Topic:** %s\n", result.OriginalTopic)
	fmt.Fprintf(&b, "**Session:** %s\n", result.SessionID)
	fmt.Fprintf(&b, "**Iterations:** %d\n", result.TotalIterations)
	fmt.Fprintf(&b, "**Sources gathered:** %d\n", len(result.Citations))
	fmt.Fprintf(&b, "**Duration:** %s\n", result.EndTime.Sub(result.StartTime).Round(1e6))
	if result.ReusedExisting {
		fmt.Fprintf(&b, "**Resumed from earlier sessions on this topic.**\n")
	}

	if breakdown := sourceBreakdown(result.Citations); len(breakdown) > 0 {
		fmt.Fprintf(&b, "\n## Source Breakdown\n\n")
		for _, source := range types.AllSources {
			if n := breakdown[source]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", source, n)
			}
		}
	}

	if len(result.Concepts) > 0 {
		fmt.Fprintf(&b, "\n## Key Concepts\n\n")
		concepts := result.Concepts
		if len(concepts) > 10 {
			concepts = concepts[:10]
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(concepts, ", "))
	}

	if len(result.ResearchDirections) > 0 {
		fmt.Fprintf(&b, "\n## Research Directions Explored\n\n")
		for i, direction := range result.ResearchDirections {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, direction)
		}
	}

	fmt.Fprintf(&b, "\n## Knowledge Graph\n\n")
	fmt.Fprintf(&b, "- Entities: %d\n", result.Graph.TotalEntities)
	fmt.Fprintf(&b, "- Relationship types: %d\n", result.Graph.TotalRelationships)
	fmt.Fprintf(&b, "- Triples: %d (avg confidence %.2f)\n", result.Graph.TotalTriples, result.Graph.AvgConfidence)
	fmt.Fprintf(&b, "- Semantic richness: %.3f\n", result.Graph.SemanticRichness)

	if len(result.RelatedTopics) > 0 {
		fmt.Fprintf(&b, "\n## Related Topics\n\n")
		for _, rt := range result.RelatedTopics {
			fmt.Fprintf(&b, "- %s (overlap %.0f%%)\n", rt.Topic, rt.OverlapScore*100)
		}
	}

	return b.String()
}

func sourceBreakdown(citations []*types.Citation) map[types.Source]int {
	counts := make(map[types.Source]int)
	for _, c := range citations {
		counts[c.Source]++
	}
	return counts
}
