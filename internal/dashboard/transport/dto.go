package transport

import (
	"time"

	"github.com/google/uuid"
)

// MetricsResponse is the aggregate snapshot rendered on the dashboard
type MetricsResponse struct {
	ActiveLeads      int          `json:"activeLeads"`
	CallsToday       CallVolume   `json:"callsToday"`
	AutoReplies      AutoReplies  `json:"autoReplies"`
	ConversionRate   float64      `json:"conversionRate"`
	LeadPipeline     LeadPipeline `json:"leadPipeline"`
	RecentActivities []Activity   `json:"recentActivities"`
}

// CallVolume breaks today's call count down by direction
type CallVolume struct {
	Total    int `json:"total"`
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
}

// AutoReplies counts today's automated replies, total and per channel
type AutoReplies struct {
	Total     int            `json:"total"`
	ByChannel map[string]int `json:"byChannel"`
}

// LeadPipeline counts leads per status stage
type LeadPipeline struct {
	Cold int `json:"cold"`
	New  int `json:"new"`
	Warm int `json:"warm"`
	Hot  int `json:"hot"`
}

// Activity is one row in the recent activity feed
type Activity struct {
	Type      string    `json:"type"`
	LeadID    uuid.UUID `json:"leadId"`
	LeadName  string    `json:"leadName"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// AskRequest is the request body for the dashboard assistant
type AskRequest struct {
	Question string `json:"question" validate:"required,min=3,max=500"`
}

// AskResponse is the assistant's answer
type AskResponse struct {
	Answer string `json:"answer"`
}
