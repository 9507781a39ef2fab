package repository

import (
	"fmt"
	"strings"
)

// DedupPolicy names the rule that picks which row of a duplicate
// (symbol, timestamp) group survives deduplication.
type DedupPolicy string

const (
	// DedupFirstStored keeps the row with the lowest physical row id (ctid).
	DedupFirstStored DedupPolicy = "first-stored"
	// DedupLastStored keeps the row with the highest ctid.
	DedupLastStored DedupPolicy = "last-stored"
	// DedupSmallestTuple keeps the lexicographically smallest (price, volume),
	// falling back to the lowest ctid between identical rows.
	DedupSmallestTuple DedupPolicy = "smallest-tuple"

	DefaultDedupPolicy = DedupFirstStored
)

var dedupOrderings = map[DedupPolicy]string{
	DedupFirstStored:   "ctid ASC",
	DedupLastStored:    "ctid DESC",
	DedupSmallestTuple: "price ASC, volume ASC, ctid ASC",
}

func DedupPolicies() []DedupPolicy {
	return []DedupPolicy{DedupFirstStored, DedupLastStored, DedupSmallestTuple}
}

func ParseDedupPolicy(s string) (DedupPolicy, error) {
	p := DedupPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return DefaultDedupPolicy, nil
	}
	if _, ok := dedupOrderings[p]; !ok {
		return "", fmt.Errorf("unknown dedup policy %q", s)
	}
	return p, nil
}

func dedupQuery(policy DedupPolicy) (string, error) {
	order, ok := dedupOrderings[policy]
	if !ok {
		return "", fmt.Errorf("unknown dedup policy %q", policy)
	}
	return `DELETE FROM stock_data
WHERE ctid IN (
    SELECT ctid FROM (
        SELECT ctid,
               ROW_NUMBER() OVER (PARTITION BY symbol, timestamp ORDER BY ` + order + `) AS rn
        FROM stock_data
    ) ranked
    WHERE rn > 1
)`, nil
}
