package service

import (
	"context"

	"salesclutch/internal/deals/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Timeline is a deal's complete progression record, newest change first,
// with override and send-back annotations attached to their entries.
type Timeline struct {
	Deal    repository.Deal
	Changes []repository.StageChange
}

// Timeline assembles the deal's history. The three ledger reads are
// independent, so they run concurrently and join before stitching.
func (s *Service) Timeline(ctx context.Context, dealID, workspaceID uuid.UUID) (Timeline, error) {
	deal, err := s.repo.GetByID(ctx, dealID, workspaceID)
	if err != nil {
		return Timeline{}, err
	}

	var (
		changes   []repository.StageChange
		overrides map[uuid.UUID][]repository.StageOverride
		sendBacks map[uuid.UUID]*repository.SendBack
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		changes, err = s.repo.History(groupCtx, dealID, workspaceID)
		return err
	})
	group.Go(func() error {
		var err error
		overrides, err = s.repo.OverridesByDeal(groupCtx, dealID)
		return err
	})
	group.Go(func() error {
		var err error
		sendBacks, err = s.repo.SendBacksByDeal(groupCtx, dealID)
		return err
	})
	if err := group.Wait(); err != nil {
		return Timeline{}, err
	}

	for i := range changes {
		changes[i].Overrides = overrides[changes[i].ID]
		changes[i].SendBack = sendBacks[changes[i].ID]
	}

	return Timeline{Deal: deal, Changes: changes}, nil
}
