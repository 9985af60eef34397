// Package service aggregates dashboard metrics and answers ad-hoc
// questions grounded in recent CRM activity.
package service

import (
	"context"
	"time"

	"businesson_backend/internal/dashboard/repository"
	"businesson_backend/internal/dashboard/transport"
	leadstransport "businesson_backend/internal/leads/transport"
	"businesson_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	activityFeedLimit  = 10
	assistantFactLimit = 50
)

// Assistant answers questions from supplied context snippets.
type Assistant interface {
	Answer(ctx context.Context, question string, contextSnippets []string) (string, error)
}

// MetricsStore is the slice of the repository the service needs.
type MetricsStore interface {
	LeadsByStatus(ctx context.Context) ([]repository.StatusCount, error)
	CallsSince(ctx context.Context, since time.Time) (repository.CallVolume, error)
	AutoRepliesSince(ctx context.Context, since time.Time) ([]repository.ChannelCount, error)
	RecentActivities(ctx context.Context, limit int) ([]repository.ActivityRow, error)
	ContextSnippets(ctx context.Context, limit int) ([]string, error)
}

// Service provides dashboard business logic
type Service struct {
	repo      MetricsStore
	assistant Assistant
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new dashboard service
func New(repo MetricsStore, assistant Assistant, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		assistant: assistant,
		log:       log,
		now:       time.Now,
	}
}

// Metrics assembles the dashboard snapshot. The independent aggregates
// run concurrently; any single query failure fails the whole snapshot.
func (s *Service) Metrics(ctx context.Context) (*transport.MetricsResponse, error) {
	startOfDay := s.startOfToday()

	var (
		byStatus    []repository.StatusCount
		calls       repository.CallVolume
		autoReplies []repository.ChannelCount
		activities  []repository.ActivityRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = s.repo.LeadsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		calls, err = s.repo.CallsSince(gctx, startOfDay)
		return err
	})
	g.Go(func() (err error) {
		autoReplies, err = s.repo.AutoRepliesSince(gctx, startOfDay)
		return err
	})
	g.Go(func() (err error) {
		activities, err = s.repo.RecentActivities(gctx, activityFeedLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pipeline := toPipeline(byStatus)
	totalLeads := pipeline.Cold + pipeline.New + pipeline.Warm + pipeline.Hot

	conversionRate := 0.0
	if totalLeads > 0 {
		conversionRate = float64(pipeline.Hot) / float64(totalLeads) * 100
	}

	replies := transport.AutoReplies{ByChannel: make(map[string]int, len(autoReplies))}
	for _, cc := range autoReplies {
		replies.ByChannel[cc.Channel] = cc.Count
		replies.Total += cc.Count
	}

	resp := &transport.MetricsResponse{
		ActiveLeads: totalLeads - pipeline.Cold,
		CallsToday: transport.CallVolume{
			Total:    calls.Total,
			Incoming: calls.Incoming,
			Outgoing: calls.Outgoing,
		},
		AutoReplies:      replies,
		ConversionRate:   conversionRate,
		LeadPipeline:     pipeline,
		RecentActivities: make([]transport.Activity, 0, len(activities)),
	}
	for _, a := range activities {
		resp.RecentActivities = append(resp.RecentActivities, transport.Activity{
			Type:      a.Type,
			LeadID:    a.LeadID,
			LeadName:  a.LeadName,
			Detail:    a.Detail,
			Timestamp: a.Timestamp,
		})
	}

	return resp, nil
}

// Ask answers a free-form question using recent leads, messages, calls,
// and appointments as grounding context.
func (s *Service) Ask(ctx context.Context, question string) (*transport.AskResponse, error) {
	snippets, err := s.repo.ContextSnippets(ctx, assistantFactLimit)
	if err != nil {
		return nil, err
	}

	answer, err := s.assistant.Answer(ctx, question, snippets)
	if err != nil {
		return nil, err
	}

	return &transport.AskResponse{Answer: answer}, nil
}

func (s *Service) startOfToday() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func toPipeline(counts []repository.StatusCount) transport.LeadPipeline {
	var p transport.LeadPipeline
	for _, sc := range counts {
		switch leadstransport.LeadStatus(sc.Status) {
		case leadstransport.LeadStatusCold:
			p.Cold = sc.Count
		case leadstransport.LeadStatusNew:
			p.New = sc.Count
		case leadstransport.LeadStatusWarm:
			p.Warm = sc.Count
		case leadstransport.LeadStatusHot:
			p.Hot = sc.Count
		}
	}
	return p
}
