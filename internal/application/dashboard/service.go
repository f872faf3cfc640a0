// Package dashboard assembles the headline numbers shown on the admin home
// page.
package dashboard

import (
	"context"
	"fmt"

	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summary is the dashboard payload
type Summary struct {
	Cases               map[string]int64 `json:"cases"`
	OpenCases           int64            `json:"open_cases"`
	OpenEscalations     int64            `json:"open_escalations"`
	OpenComplianceFlags int64            `json:"open_compliance_flags"`
	ActivePDs           int64            `json:"active_pds"`
	PendingApplications int64            `json:"pending_applications"`
	EarningsPending     decimal.Decimal  `json:"earnings_pending"`
	EarningsApproved    decimal.Decimal  `json:"earnings_approved"`
	Currency            string           `json:"currency"`
}

// Service reads counters from each module's repository
type Service struct {
	cases        casework.CaseRepository
	escalations  casework.EscalationRepository
	flags        casework.ComplianceFlagRepository
	pds          partner.PDRepository
	applications partner.ApplicationRepository
	ledger       earnings.LedgerRepository
	currency     string
}

// NewService creates a new dashboard service
func NewService(
	cases casework.CaseRepository,
	escalations casework.EscalationRepository,
	flags casework.ComplianceFlagRepository,
	pds partner.PDRepository,
	applications partner.ApplicationRepository,
	ledger earnings.LedgerRepository,
	currency string,
) *Service {
	return &Service{
		cases:        cases,
		escalations:  escalations,
		flags:        flags,
		pds:          pds,
		applications: applications,
		ledger:       ledger,
		currency:     currency,
	}
}

// Summary runs the counters concurrently. Any failing query fails the call.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	out := &Summary{
		Cases:            make(map[string]int64, len(casework.AllCaseStatuses())),
		EarningsPending:  decimal.Zero,
		EarningsApproved: decimal.Zero,
		Currency:         s.currency,
	}
	for _, status := range casework.AllCaseStatuses() {
		out.Cases[string(status)] = 0
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.cases.CountByStatus(ctx)
		if err != nil {
			return fmt.Errorf("count cases: %w", err)
		}
		for status, n := range counts {
			out.Cases[string(status)] = n
			if status.IsOpen() {
				out.OpenCases += n
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		out.OpenEscalations, err = s.escalations.CountOpen(ctx)
		return wrap("count escalations", err)
	})
	g.Go(func() (err error) {
		out.OpenComplianceFlags, err = s.flags.CountOpen(ctx)
		return wrap("count compliance flags", err)
	})
	g.Go(func() (err error) {
		out.ActivePDs, err = s.pds.CountByStatus(ctx, partner.PDStatusActive)
		return wrap("count pds", err)
	})
	g.Go(func() (err error) {
		out.PendingApplications, err = s.applications.CountByStatus(ctx, partner.ApplicationStatusSubmitted)
		return wrap("count applications", err)
	})
	g.Go(func() error {
		totals, err := s.ledger.SumByStatus(ctx, nil)
		if err != nil {
			return fmt.Errorf("sum earnings: %w", err)
		}
		if v, ok := totals[earnings.EntryStatusPending]; ok {
			out.EarningsPending = v
		}
		if v, ok := totals[earnings.EntryStatusApproved]; ok {
			out.EarningsApproved = v
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
