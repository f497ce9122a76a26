package service

import (
	"context"
	"fmt"
	"log/slog"
	"oj_account/internal/domain/model"
	"oj_account/internal/domain/repository"
	"oj_account/internal/platform/logger"
)

// StatsCache stores computed summaries keyed by user id.
type StatsCache interface {
	Get(ctx context.Context, userID int64) (*model.StatsSummary, bool, error)
	Set(ctx context.Context, userID int64, summary *model.StatsSummary) error
	Invalidate(ctx context.Context, userID int64) error
}

type StatsService struct {
	submissionRepo repository.SubmissionRepository
	cache          StatsCache // optional
}

func NewStatsService(submissionRepo repository.SubmissionRepository, cache StatsCache) *StatsService {
	return &StatsService{submissionRepo: submissionRepo, cache: cache}
}

// ComputeStats summarizes the full submission history of userID. A cache
// failure only costs a recomputation.
func (s *StatsService) ComputeStats(ctx context.Context, userID int64) (*model.StatsSummary, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		summary, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Warn("stats cache read failed", slog.Int64("user_id", userID), slog.Any("err", err))
		} else if ok {
			return summary, nil
		}
	}

	records, err := s.submissionRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	summary := ReduceSubmissions(records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, summary); err != nil {
			log.Warn("stats cache write failed", slog.Int64("user_id", userID), slog.Any("err", err))
		}
	}
	return summary, nil
}

// ReduceSubmissions folds records into a summary in one pass. Verdicts other
// than AC, WA, CE and TLE only count towards AllCount. Problem ids keep the
// order in which they were first seen.
func ReduceSubmissions(records []model.SubmissionRecord) *model.StatsSummary {
	summary := &model.StatsSummary{
		SolvedProblem:   []int64{},
		UnsolvedProblem: []int64{},
	}

	var attempted []int64
	seen := make(map[int64]struct{})
	solved := make(map[int64]struct{})

	for _, r := range records {
		switch r.Result {
		case model.VerdictAccepted:
			summary.ACCount++
		case model.VerdictWrongAnswer:
			summary.WACount++
		case model.VerdictCompileError:
			summary.CECount++
		case model.VerdictTimeLimitExceeded:
			summary.TLECount++
		}
		summary.AllCount++

		if _, ok := seen[r.ProblemID]; !ok {
			seen[r.ProblemID] = struct{}{}
			attempted = append(attempted, r.ProblemID)
		}
		if r.Result == model.VerdictAccepted {
			if _, ok := solved[r.ProblemID]; !ok {
				solved[r.ProblemID] = struct{}{}
				summary.SolvedProblem = append(summary.SolvedProblem, r.ProblemID)
			}
		}
	}

	for _, id := range attempted {
		if _, ok := solved[id]; !ok {
			summary.UnsolvedProblem = append(summary.UnsolvedProblem, id)
		}
	}
	return summary
}
