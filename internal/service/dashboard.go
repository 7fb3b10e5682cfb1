package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

// recentContacts is how many contacts the dashboard lists.
const recentContacts = 5

type dashboardService struct {
	counts   repository.DashboardRepository
	contacts repository.ContactRepository
	opts     options
	log      zerolog.Logger
}

func NewDashboardService(counts repository.DashboardRepository, contacts repository.ContactRepository, logger zerolog.Logger, opts ...Option) DashboardService {
	l := logger.With().Str("module", "service").Str("component", "dashboard").Logger()
	return &dashboardService{counts: counts, contacts: contacts, opts: buildOptions(opts), log: l}
}

// Summary rolls up the owner's records. Every known status and stage is
// present in the maps, with zero when there are no rows.
func (s *dashboardService) Summary(ctx context.Context, owner model.Identity) (model.DashboardSummary, error) {
	if err := requireOwner(owner); err != nil {
		return model.DashboardSummary{}, err
	}

	c, err := s.counts.Counts(ctx, owner.UserID, s.opts.now())
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("dashboard counts failed")
		return model.DashboardSummary{}, err
	}
	recent, err := s.contacts.ListRecent(ctx, owner.UserID, recentContacts)
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("recent contacts failed")
		return model.DashboardSummary{}, err
	}

	out := model.DashboardSummary{
		ContactsByStatus: make(map[string]int, len(model.ContactStatuses)),
		DealsByStage:     make(map[string]model.StageTotal, len(model.DealStages)),
		TasksByStatus:    make(map[string]int, len(model.TaskStatuses)),
		OverdueTasks:     c.OverdueTasks,
		RecentContacts:   recent,
	}
	for _, st := range model.ContactStatuses {
		n := c.ContactsByStatus[st]
		out.ContactsByStatus[st] = n
		out.TotalContacts += n
	}
	for _, st := range model.DealStages {
		total := c.DealsByStage[st]
		out.DealsByStage[st] = total
		out.TotalDeals += total.Count
		switch st {
		case model.StageWon:
			out.WonValue += total.Value
		case model.StageLost:
		default:
			out.PipelineValue += total.Value
		}
	}
	for _, st := range model.TaskStatuses {
		out.TasksByStatus[st] = c.TasksByStatus[st]
	}
	if out.RecentContacts == nil {
		out.RecentContacts = []model.Contact{}
	}
	return out, nil
}
