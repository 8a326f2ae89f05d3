// Package alerting deduplicates and ranks replenishment alerts.
package alerting

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/repository"
)

// Request describes an alert to raise.
type Request struct {
	ProductID         int64
	AlertType         string
	Severity          domain.Severity
	Message           string
	RecommendedAction string
}

// Coordinator enforces the at-most-one-unresolved-alert-per-product
// invariant and serves severity-ranked listings. It never resolves
// alerts; resolution is an operator action outside this package.
type Coordinator struct {
	repo repository.AlertRepository
}

func NewCoordinator(repo repository.AlertRepository) *Coordinator {
	return &Coordinator{repo: repo}
}

// Raise inserts a new unresolved alert unless one already exists for
// the product. Returns whether an alert was actually created, making
// repeated raises idempotent.
func (c *Coordinator) Raise(ctx context.Context, req Request) (bool, error) {
	exists, err := c.repo.HasUnresolved(ctx, req.ProductID)
	if err != nil {
		return false, fmt.Errorf("check unresolved alert for product %d: %w", req.ProductID, err)
	}
	if exists {
		log.Debug().Int64("product_id", req.ProductID).Msg("unresolved alert already present, skipping")
		return false, nil
	}

	alert := &domain.Alert{
		ProductID:         req.ProductID,
		AlertType:         req.AlertType,
		Severity:          req.Severity,
		Message:           req.Message,
		RecommendedAction: req.RecommendedAction,
		IsResolved:        false,
	}
	if err := c.repo.Insert(ctx, alert); err != nil {
		return false, fmt.Errorf("%w: insert alert for product %d: %v", domain.ErrPersistence, req.ProductID, err)
	}

	log.Info().
		Int64("product_id", req.ProductID).
		Str("severity", string(req.Severity)).
		Str("type", req.AlertType).
		Msg("alert raised")
	return true, nil
}

// ListActive returns unresolved alerts ordered by severity rank, then
// creation time ascending so the longest-standing risk of a given
// severity surfaces first.
func (c *Coordinator) ListActive(ctx context.Context) ([]domain.Alert, error) {
	alerts, err := c.repo.ListUnresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unresolved alerts: %w", err)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Severity.Rank(), alerts[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
	return alerts, nil
}

// BreakdownBySeverity counts active alerts per severity.
func (c *Coordinator) BreakdownBySeverity(ctx context.Context) (map[domain.Severity]int, error) {
	alerts, err := c.repo.ListUnresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unresolved alerts: %w", err)
	}

	breakdown := make(map[domain.Severity]int)
	for _, a := range alerts {
		breakdown[a.Severity]++
	}
	return breakdown, nil
}
