package services

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"pnodedash/models"
	"pnodedash/utils"
)

type DataAggregator struct {
	geo *utils.GeoResolver
}

// TopUptimeSize is the number of bars in the top-uptime chart.
const TopUptimeSize = 5

const secondsPerDay = 86400

// NewDataAggregator accepts a nil or disabled resolver; region counts are
// then left out.
func NewDataAggregator(geo *utils.GeoResolver) *DataAggregator {
	return &DataAggregator{
		geo: geo,
	}
}

// Aggregate derives card and chart figures from one set of rows.
func (da *DataAggregator) Aggregate(nodes []models.PNode) models.NetworkStats {
	aggr := models.NetworkStats{
		TotalNodes:  len(nodes),
		StatusChart: []models.ChartPoint{},
		TopUptime:   []models.UptimePoint{},
		Versions:    make(map[string]int),
	}
	if da.geo.Enabled() {
		aggr.Regions = make(map[string]int)
	}

	if len(nodes) == 0 {
		return aggr
	}

	counts := make(map[models.NodeStatus]int)
	var sumUptime int64
	var withUptime int

	for _, node := range nodes {
		counts[node.Status]++
		aggr.Versions[node.Version]++

		if node.Uptime != nil {
			sumUptime += *node.Uptime
			withUptime++
		}

		if aggr.Regions != nil {
			aggr.Regions[da.geo.Region(node.IP)]++
		}
	}

	aggr.ActiveNodes = counts[models.StatusActive]
	aggr.InactiveNodes = counts[models.StatusInactive]
	aggr.SyncingNodes = counts[models.StatusSyncing]
	aggr.UnknownNodes = counts[models.StatusUnknown]

	if withUptime > 0 {
		aggr.AverageUptime = float64(sumUptime) / float64(withUptime)
	}

	for _, status := range models.AllStatuses {
		if counts[status] == 0 {
			continue
		}
		aggr.StatusChart = append(aggr.StatusChart, models.ChartPoint{
			Name:  chartLabel(status),
			Count: counts[status],
		})
	}

	aggr.TopUptime = topUptime(nodes)

	log.Debug().
		Int("total", aggr.TotalNodes).
		Int("active", aggr.ActiveNodes).
		Int("inactive", aggr.InactiveNodes).
		Float64("avg_uptime", aggr.AverageUptime).
		Msg("Aggregated nodes")

	return aggr
}

// chartLabel capitalizes the status for display: "active" -> "Active".
func chartLabel(status models.NodeStatus) string {
	s := string(status)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// topUptime ranks rows reporting a positive uptime, longest first. Ties keep
// input order.
func topUptime(nodes []models.PNode) []models.UptimePoint {
	ranked := make([]models.PNode, 0, len(nodes))
	for _, node := range nodes {
		if node.Uptime != nil && *node.Uptime > 0 {
			ranked = append(ranked, node)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Uptime > *ranked[j].Uptime
	})
	if len(ranked) > TopUptimeSize {
		ranked = ranked[:TopUptimeSize]
	}

	points := make([]models.UptimePoint, 0, len(ranked))
	for _, node := range ranked {
		points = append(points, models.UptimePoint{
			Name:       shortKey(node.Pubkey),
			UptimeDays: *node.Uptime / secondsPerDay,
		})
	}
	return points
}

// shortKey is the first 8 characters of a pubkey followed by "...".
func shortKey(pubkey string) string {
	runes := []rune(pubkey)
	if len(runes) > 8 {
		runes = runes[:8]
	}
	return string(runes) + "..."
}
