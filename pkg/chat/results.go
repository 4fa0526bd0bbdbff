package chat

import (
	"sort"

	"github.com/studyscout/scout/pkg/api"
)

// MergeResults combines the two source lists and orders them by descending
// relevance score. The sort is stable, so items with equal scores keep
// their source-list order with primary items first.
func MergeResults(primary, community []api.ResultItem) []api.ResultItem {
	merged := make([]api.ResultItem, 0, len(primary)+len(community))
	merged = append(merged, primary...)
	merged = append(merged, community...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	return merged
}
