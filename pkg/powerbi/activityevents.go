package powerbi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/logging"
)

// ActivityEvent is one audit record from the admin activity feed. The set
// of fields varies per activity type, so the payload stays a free-form map.
type ActivityEvent map[string]any

type activityEventsResponse struct {
	ActivityEventEntities []ActivityEvent `json:"activityEventEntities"`
	ContinuationToken     *string         `json:"continuationToken"`
}

// GetActivityEvents fetches the organization's activity events between
// start and end (which must fall on the same UTC day, per the API), walking
// continuation tokens until the feed is exhausted. Requires admin
// permissions.
func (c *Client) GetActivityEvents(ctx context.Context, start, end time.Time) ([]ActivityEvent, error) {
	op := logging.Begin(c.log, "powerbi.get_activity_events", log.Fields{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})

	// The API requires the datetime values wrapped in single quotes.
	params := url.Values{
		"startDateTime": {"'" + start.UTC().Format("2006-01-02T15:04:05") + "'"},
		"endDateTime":   {"'" + end.UTC().Format("2006-01-02T15:04:05") + "'"},
	}

	var events []ActivityEvent
	for {
		var page activityEventsResponse
		if err := c.do(ctx, http.MethodGet, "admin/activityevents", params, nil, &page); err != nil {
			return nil, op.Done(err)
		}
		events = append(events, page.ActivityEventEntities...)

		if page.ContinuationToken == nil || *page.ContinuationToken == "" {
			break
		}
		params.Set("continuationToken", *page.ContinuationToken)
	}

	c.log.Debugf("retrieved %d activity events", len(events))
	_ = op.Done(nil)
	return events, nil
}
