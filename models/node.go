package models

// NodeStatus is the row-level status shown by the dashboard.
type NodeStatus string

const (
	StatusActive   NodeStatus = "active"
	StatusInactive NodeStatus = "inactive"
	StatusSyncing  NodeStatus = "syncing"
	StatusUnknown  NodeStatus = "unknown"
)

// AllStatuses lists every status in display order.
var AllStatuses = []NodeStatus{StatusActive, StatusInactive, StatusSyncing, StatusUnknown}

// PNode is the normalized row handed to the dashboard views.
type PNode struct {
	Pubkey         string     `json:"pubkey"`
	IP             string     `json:"ip"`
	Port           int64      `json:"port"`
	Version        string     `json:"version"`
	LastVote       *int64     `json:"lastVote,omitempty"`
	Status         NodeStatus `json:"status"`
	Uptime         *int64     `json:"uptime,omitempty"` // seconds
	BlocksProduced *int64     `json:"blocksProduced,omitempty"`
	Latency        *int64     `json:"latency,omitempty"` // ms
	Location       *string    `json:"location,omitempty"`
}
