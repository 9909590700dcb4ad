package cfapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/antonholmquist/jason"
)

// Analytics comes from the GraphQL endpoint, which shares the REST API's
// authentication but not its response envelope. The deeply nested, loosely
// typed responses are navigated with jason instead of struct decoding; the
// provider computes the per-group numbers and we only aggregate them.

const graphqlPath = "/graphql"

// TrafficDay is one day of zone traffic.
type TrafficDay struct {
	Date        string
	Requests    int64
	PageViews   int64
	Uniques     int64
	Bytes       int64
	CachedBytes int64
	Threats     int64
}

// TrafficSummary is the aggregated traffic of a zone over a period.
type TrafficSummary struct {
	Days        []TrafficDay
	Requests    int64
	PageViews   int64
	Uniques     int64
	Bytes       int64
	CachedBytes int64
	Threats     int64
}

// CacheRate is the share of bytes served from cache, in percent.
func (s *TrafficSummary) CacheRate() float64 {
	if s.Bytes == 0 {
		return 0
	}
	return float64(s.CachedBytes) / float64(s.Bytes) * 100
}

// PathStat is request volume for one request path.
type PathStat struct {
	Path     string
	Requests int64
	Bytes    int64
}

// CountryStat is request volume for one client country.
type CountryStat struct {
	Country  string
	Requests int64
	Bytes    int64
}

// StatusCount is request volume for one HTTP response status.
type StatusCount struct {
	Status   int64
	Requests int64
}

// graphql posts a query and returns the parsed response after surfacing any
// GraphQL-level errors as a generic classified error.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any) (*jason.Object, error) {
	payload, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        graphqlPath,
		Body:        map[string]any{"query": query, "variables": variables},
		RawResponse: true,
	})
	if err != nil {
		return nil, err
	}

	root, err := jason.NewObjectFromBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode analytics response: %w", err)
	}
	if errs, err := root.GetObjectArray("errors"); err == nil && len(errs) > 0 {
		entries := make([]ErrorEntry, 0, len(errs))
		for _, e := range errs {
			msg, _ := e.GetString("message")
			entries = append(entries, ErrorEntry{Message: msg})
		}
		return nil, &APIError{
			Status:   http.StatusOK,
			Kind:     KindGeneric,
			Errors:   entries,
			Endpoint: graphqlPath,
		}
	}
	return root, nil
}

// zoneGroups navigates to the named group list of the first zone in a
// GraphQL response. A missing or empty zone list yields no groups.
func zoneGroups(root *jason.Object, groupField string) []*jason.Object {
	zones, err := root.GetObjectArray("data", "viewer", "zones")
	if err != nil || len(zones) == 0 {
		return nil
	}
	groups, err := zones[0].GetObjectArray(groupField)
	if err != nil {
		return nil
	}
	return groups
}

func analyticsPeriod(days int) (since, until string) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

const trafficQuery = `
query GetZoneAnalytics($zoneTag: String!, $since: String!, $until: String!) {
  viewer {
    zones(filter: {zoneTag: $zoneTag}) {
      httpRequests1dGroups(
        limit: 100
        filter: {date_geq: $since, date_leq: $until}
        orderBy: [date_ASC]
      ) {
        dimensions { date }
        sum { requests pageViews bytes cachedBytes threats }
        uniq { uniques }
      }
    }
  }
}`

// TrafficSummary returns daily traffic for the zone over the last days days,
// with client-side totals.
func (c *Client) TrafficSummary(ctx context.Context, zoneID string, days int) (*TrafficSummary, error) {
	since, until := analyticsPeriod(days)
	root, err := c.graphql(ctx, trafficQuery, map[string]any{
		"zoneTag": zoneID, "since": since, "until": until,
	})
	if err != nil {
		return nil, err
	}

	summary := &TrafficSummary{}
	for _, g := range zoneGroups(root, "httpRequests1dGroups") {
		day := TrafficDay{}
		day.Date, _ = g.GetString("dimensions", "date")
		day.Requests, _ = g.GetInt64("sum", "requests")
		day.PageViews, _ = g.GetInt64("sum", "pageViews")
		day.Bytes, _ = g.GetInt64("sum", "bytes")
		day.CachedBytes, _ = g.GetInt64("sum", "cachedBytes")
		day.Threats, _ = g.GetInt64("sum", "threats")
		day.Uniques, _ = g.GetInt64("uniq", "uniques")

		summary.Days = append(summary.Days, day)
		summary.Requests += day.Requests
		summary.PageViews += day.PageViews
		summary.Uniques += day.Uniques
		summary.Bytes += day.Bytes
		summary.CachedBytes += day.CachedBytes
		summary.Threats += day.Threats
	}
	return summary, nil
}

const topPathsQuery = `
query GetTopPaths($zoneTag: String!, $since: DateTime!, $until: DateTime!, $limit: Int!) {
  viewer {
    zones(filter: {zoneTag: $zoneTag}) {
      httpRequestsAdaptiveGroups(
        limit: $limit
        filter: {datetime_geq: $since, datetime_leq: $until}
        orderBy: [count_DESC]
      ) {
        dimensions { clientRequestPath }
        count
        sum { edgeResponseBytes }
      }
    }
  }
}`

// TopPaths returns the most requested paths over the last 24 hours. The
// adaptive-groups dataset does not go further back, so there is no days knob.
func (c *Client) TopPaths(ctx context.Context, zoneID string, limit int) ([]PathStat, error) {
	if limit <= 0 {
		limit = 20
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -1)
	root, err := c.graphql(ctx, topPathsQuery, map[string]any{
		"zoneTag": zoneID,
		"since":   start.Format("2006-01-02T15:04:05Z"),
		"until":   end.Format("2006-01-02T15:04:05Z"),
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}

	var paths []PathStat
	for _, g := range zoneGroups(root, "httpRequestsAdaptiveGroups") {
		stat := PathStat{}
		stat.Path, _ = g.GetString("dimensions", "clientRequestPath")
		stat.Requests, _ = g.GetInt64("count")
		stat.Bytes, _ = g.GetInt64("sum", "edgeResponseBytes")
		paths = append(paths, stat)
	}
	return paths, nil
}

const countriesQuery = `
query GetCountries($zoneTag: String!, $since: String!, $until: String!) {
  viewer {
    zones(filter: {zoneTag: $zoneTag}) {
      httpRequests1dGroups(
        limit: 100
        filter: {date_geq: $since, date_leq: $until}
      ) {
        sum {
          countryMap { clientCountryName requests bytes }
        }
      }
    }
  }
}`

// CountryBreakdown aggregates traffic by client country over the last days
// days, sorted by request count, capped at limit entries.
func (c *Client) CountryBreakdown(ctx context.Context, zoneID string, days, limit int) ([]CountryStat, error) {
	if limit <= 0 {
		limit = 15
	}
	since, until := analyticsPeriod(days)
	root, err := c.graphql(ctx, countriesQuery, map[string]any{
		"zoneTag": zoneID, "since": since, "until": until,
	})
	if err != nil {
		return nil, err
	}

	totals := map[string]*CountryStat{}
	for _, g := range zoneGroups(root, "httpRequests1dGroups") {
		entries, err := g.GetObjectArray("sum", "countryMap")
		if err != nil {
			continue
		}
		for _, entry := range entries {
			country, _ := entry.GetString("clientCountryName")
			if country == "" {
				country = "Unknown"
			}
			stat, ok := totals[country]
			if !ok {
				stat = &CountryStat{Country: country}
				totals[country] = stat
			}
			requests, _ := entry.GetInt64("requests")
			bytes, _ := entry.GetInt64("bytes")
			stat.Requests += requests
			stat.Bytes += bytes
		}
	}

	stats := make([]CountryStat, 0, len(totals))
	for _, stat := range totals {
		stats = append(stats, *stat)
	}
	// Country name breaks ties so equal counts render identically run to run
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Requests != stats[j].Requests {
			return stats[i].Requests > stats[j].Requests
		}
		return stats[i].Country < stats[j].Country
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

const statusCodesQuery = `
query GetStatusCodes($zoneTag: String!, $since: String!, $until: String!) {
  viewer {
    zones(filter: {zoneTag: $zoneTag}) {
      httpRequests1dGroups(
        limit: 100
        filter: {date_geq: $since, date_leq: $until}
      ) {
        sum {
          responseStatusMap { edgeResponseStatus requests }
        }
      }
    }
  }
}`

// StatusCodeBreakdown aggregates traffic by edge response status over the
// last days days, sorted by status code.
func (c *Client) StatusCodeBreakdown(ctx context.Context, zoneID string, days int) ([]StatusCount, error) {
	since, until := analyticsPeriod(days)
	root, err := c.graphql(ctx, statusCodesQuery, map[string]any{
		"zoneTag": zoneID, "since": since, "until": until,
	})
	if err != nil {
		return nil, err
	}

	totals := map[int64]int64{}
	for _, g := range zoneGroups(root, "httpRequests1dGroups") {
		entries, err := g.GetObjectArray("sum", "responseStatusMap")
		if err != nil {
			continue
		}
		for _, entry := range entries {
			status, _ := entry.GetInt64("edgeResponseStatus")
			requests, _ := entry.GetInt64("requests")
			totals[status] += requests
		}
	}

	counts := make([]StatusCount, 0, len(totals))
	for status, requests := range totals {
		counts = append(counts, StatusCount{Status: status, Requests: requests})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts, nil
}
