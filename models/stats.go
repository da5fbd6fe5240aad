package models

import "time"

// NetworkStats is the aggregate shown on the metric cards and charts.
type NetworkStats struct {
	TotalNodes    int `json:"total_nodes"`
	ActiveNodes   int `json:"active_nodes"`
	InactiveNodes int `json:"inactive_nodes"`
	SyncingNodes  int `json:"syncing_nodes"`
	UnknownNodes  int `json:"unknown_nodes"`

	// Mean over rows that report an uptime; 0 when none do.
	AverageUptime float64 `json:"average_uptime"`

	StatusChart []ChartPoint   `json:"status_chart"`
	TopUptime   []UptimePoint  `json:"top_uptime"`
	Versions    map[string]int `json:"versions"`
	Regions     map[string]int `json:"regions,omitempty"`
}

// ChartPoint is one bar of the status chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UptimePoint is one bar of the top-uptime chart.
type UptimePoint struct {
	Name       string `json:"name"`
	UptimeDays int64  `json:"uptime_days"`
}

// DashboardSnapshot is what the dashboard page renders from one fetch.
type DashboardSnapshot struct {
	Nodes     []PNode      `json:"nodes"`
	Stats     NetworkStats `json:"stats"`
	IsMock    bool         `json:"is_mock"`
	Error     string       `json:"error,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}
