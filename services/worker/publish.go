package worker

import (
	"encoding/json"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/services/metrics"
	"sjsage522/carlistingworker/services/publisher"
)

// PublishAdded sends each newly stored record to the change stream of site
// and trims the streams afterwards. Failures are journaled, never returned.
func PublishAdded(
	pub publisher.Publisher,
	site string,
	records []crawler.ListingRecord,
	journal helpers.LoggerInterface,
	m *metrics.Metrics,
) int {
	published := 0
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			journal.LogError(site, err)
			m.Published(site, "error")
			continue
		}

		if err := pub.Publish(site, data); err != nil {
			journal.LogError(site, err)
			m.Published(site, "error")
			continue
		}
		m.Published(site, "ok")
		published++
	}

	if err := pub.TrimStreams(); err != nil {
		journal.LogError("StreamTrimming", err)
	}
	journal.LogInfo("Published %d of %d new %s listings", published, len(records), site)
	return published
}
