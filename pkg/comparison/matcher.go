package comparison

import "github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"

// Pair is a comparison row bound to the master row it updates.
type Pair struct {
	Comparison *boq.ComparisonRow
	Master     *boq.MasterRow
}

// MatchResult partitions the valid comparison rows. Both lists keep
// comparison file order.
type MatchResult struct {
	Matched   []Pair
	Unmatched []*boq.ComparisonRow
}

// MatchFunc partitions valid rows against a master.
type MatchFunc func(rows []*boq.ComparisonRow, master *boq.MasterDataset) MatchResult

// Match pairs comparison rows with master rows by normalized key. Within a
// key the i-th comparison occurrence binds to the i-th master occurrence in
// position order; occurrences beyond the master's count are unmatched, as
// are keys the master does not carry. Invalid rows are ignored and rows with
// a blank key never match. Matched rows get MatchedMasterKey set.
func Match(rows []*boq.ComparisonRow, master *boq.MasterDataset) MatchResult {
	groups := make(map[string][]*boq.MasterRow)
	for _, r := range master.Rows {
		groups[r.Key] = append(groups[r.Key], r)
	}

	var result MatchResult
	seen := make(map[string]int)
	for _, row := range rows {
		if !row.IsValid {
			continue
		}
		key := row.Key()
		i := seen[key]
		seen[key]++

		candidates := groups[key]
		if key == "" || i >= len(candidates) {
			row.MatchedMasterKey = nil
			result.Unmatched = append(result.Unmatched, row)
			continue
		}
		target := candidates[i]
		row.MatchedMasterKey = target.RowRef()
		result.Matched = append(result.Matched, Pair{Comparison: row, Master: target})
	}
	return result
}
