package worker

import "sjsage522/carlistingworker/internal/crawler"

// Filter keeps the first record of each identity and records every kept
// identity in seen. seen is shared across pages of one run.
func Filter(records []crawler.ListingRecord, seen map[crawler.IdentityKey]struct{}) []crawler.ListingRecord {
	kept := make([]crawler.ListingRecord, 0, len(records))
	for _, record := range records {
		key := record.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, record)
	}
	return kept
}
