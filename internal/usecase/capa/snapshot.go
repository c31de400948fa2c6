package capa

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// DefaultChangeLimit bounds change log listings when the caller passes zero.
const DefaultChangeLimit = 200

// Overview is a loaded snapshot plus the collections that had to be
// treated as empty because they failed to load.
type Overview struct {
	Snapshot qms.Snapshot `json:"-"`
	Today    qms.Date     `json:"today"`
	Degraded []string     `json:"degraded,omitempty"`
}

// LoadSnapshot reads every collection in parallel. A failing collection
// degrades to empty and is reported in Degraded; only a cancelled context
// fails the whole load.
func (s *Service) LoadSnapshot(ctx context.Context) (Overview, error) {
	if err := s.begin(ctx); err != nil {
		return Overview{}, err
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.capa"), slog.String("op", "load_snapshot"))

	var (
		snap     qms.Snapshot
		mu       sync.Mutex
		degraded []string
	)
	degrade := func(collection string, err error) {
		mu.Lock()
		degraded = append(degraded, collection)
		mu.Unlock()
		if s.metrics != nil {
			s.metrics.ObserveDegradedLoad(collection)
		}
		logging.Warn(logCtx, "collection load failed, treating as empty",
			slog.String("collection", collection),
			slog.Any("err", errs.Loggable(err)),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	load := func(collection string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				degrade(collection, err)
			}
			return nil
		})
	}

	load("cars", func(c context.Context) (err error) { snap.CARs, err = s.repo.ListCARs(c); return })
	load("caps", func(c context.Context) (err error) { snap.CAPs, err = s.repo.ListCAPs(c); return })
	load("verifications", func(c context.Context) (err error) { snap.Verifications, err = s.repo.ListVerifications(c); return })
	load("risks", func(c context.Context) (err error) { snap.Risks, err = s.repo.ListRisks(c); return })
	load("documents", func(c context.Context) (err error) { snap.Documents, err = s.repo.ListDocuments(c); return })
	load("flight_docs", func(c context.Context) (err error) { snap.FlightDocs, err = s.repo.ListFlightDocs(c); return })
	load("audits", func(c context.Context) (err error) { snap.Audits, err = s.repo.ListAudits(c); return })
	load("contractors", func(c context.Context) (err error) { snap.Contractors, err = s.repo.ListContractors(c); return })
	load("managers", func(c context.Context) (err error) { snap.Managers, err = s.repo.ListManagers(c); return })

	if err := g.Wait(); err != nil {
		return Overview{}, errs.Wrap(err, "load snapshot")
	}
	sort.Strings(degraded)
	return Overview{Snapshot: snap, Today: s.today(), Degraded: degraded}, nil
}

type ScoreReport struct {
	Score    qms.ComplianceScore `json:"score"`
	Today    qms.Date            `json:"today"`
	Degraded []string            `json:"degraded,omitempty"`
}

// Score recomputes the compliance score from a fresh snapshot.
func (s *Service) Score(ctx context.Context) (ScoreReport, error) {
	ov, err := s.LoadSnapshot(ctx)
	if err != nil {
		return ScoreReport{}, err
	}
	score := qms.Score(ov.Snapshot, ov.Today)
	if s.metrics != nil {
		s.metrics.SetComplianceScore(score.Total)
	}
	return ScoreReport{Score: score, Today: ov.Today, Degraded: ov.Degraded}, nil
}

type AlertReport struct {
	Alerts   []qms.Alert `json:"alerts"`
	Today    qms.Date    `json:"today"`
	Degraded []string    `json:"degraded,omitempty"`
}

func (s *Service) Alerts(ctx context.Context) (AlertReport, error) {
	ov, err := s.LoadSnapshot(ctx)
	if err != nil {
		return AlertReport{}, err
	}
	return AlertReport{Alerts: qms.CollectAlerts(ov.Snapshot, ov.Today), Today: ov.Today, Degraded: ov.Degraded}, nil
}

type DashboardReport struct {
	Dashboard qms.Dashboard `json:"dashboard"`
	Today     qms.Date      `json:"today"`
	Degraded  []string      `json:"degraded,omitempty"`
}

func (s *Service) Dashboard(ctx context.Context) (DashboardReport, error) {
	ov, err := s.LoadSnapshot(ctx)
	if err != nil {
		return DashboardReport{}, err
	}
	return s.dashboardFrom(ov), nil
}

func (s *Service) dashboardFrom(ov Overview) DashboardReport {
	d := qms.BuildDashboard(ov.Snapshot, ov.Today)
	if s.metrics != nil {
		s.metrics.SetComplianceScore(d.Score.Total)
	}
	return DashboardReport{Dashboard: d, Today: ov.Today, Degraded: ov.Degraded}
}

// Drift is one CAR whose stored status differs from the status its CAP and
// verification imply.
type Drift struct {
	CARID   string        `json:"car_id"`
	Stored  qms.CARStatus `json:"stored"`
	Derived qms.CARStatus `json:"derived"`
}

// Check re-derives every CAR status and reports the ones that drifted.
func (s *Service) Check(ctx context.Context) ([]Drift, error) {
	ov, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(ov.Degraded) > 0 {
		return nil, errs.Persistence(fmt.Errorf("cannot check statuses, collections failed to load: %v", ov.Degraded))
	}

	caps := make(map[string]*qms.CAP, len(ov.Snapshot.CAPs))
	for i := range ov.Snapshot.CAPs {
		caps[ov.Snapshot.CAPs[i].CARID] = &ov.Snapshot.CAPs[i]
	}
	verifications := make(map[string]*qms.Verification, len(ov.Snapshot.Verifications))
	for i := range ov.Snapshot.Verifications {
		verifications[ov.Snapshot.Verifications[i].CARID] = &ov.Snapshot.Verifications[i]
	}

	var drifts []Drift
	for _, car := range ov.Snapshot.CARs {
		plan, v := caps[car.ID], verifications[car.ID]
		if err := qms.CheckStatusConsistency(car, plan, v); err != nil {
			drifts = append(drifts, Drift{CARID: car.ID, Stored: car.Status, Derived: qms.DeriveStatus(plan, v)})
		}
	}
	return drifts, nil
}

// Changes lists the change log, newest first.
func (s *Service) Changes(ctx context.Context, limit int) ([]qms.ChangeEntry, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultChangeLimit
	}
	entries, err := s.repo.ListChanges(ctx, limit)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}
