package capa

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

var (
	errActorRequired = errors.New("actor is required")
	errIDRequired    = errors.New("id is required")
)

// Options carries the collaborators that are optional or configurable.
// Nil collaborators disable their side effect.
type Options struct {
	Cache    ports.Cache
	Notifier ports.Notifier
	Feed     ports.ChangeFeed
	Evidence ports.EvidenceStore
	Metrics  ports.Metrics
	Gate     qms.VerificationGate
	Location *time.Location
}

type Service struct {
	repo     ports.QMSRepository
	uow      ports.UnitOfWork
	cache    ports.Cache
	notifier ports.Notifier
	feed     ports.ChangeFeed
	evidence ports.EvidenceStore
	metrics  ports.Metrics
	gate     qms.VerificationGate
	loc      *time.Location
	now      func() time.Time
	newID    func(prefix string) string
}

// NewService wires the CAPA usecases around the record store.
func NewService(repo ports.QMSRepository, uow ports.UnitOfWork, opts Options) *Service {
	gate := opts.Gate
	if gate == "" {
		gate = qms.GateAdvisory
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		uow:      uow,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		feed:     opts.Feed,
		evidence: opts.Evidence,
		metrics:  opts.Metrics,
		gate:     gate,
		loc:      loc,
		now:      time.Now,
		newID:    newRecordID,
	}
}

// newRecordID returns prefix-XXXXXXXX with eight upper-case hex characters.
func newRecordID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:8])
}

func (s *Service) today() qms.Date {
	return qms.DateOf(s.now().In(s.loc))
}

func (s *Service) nowUTC() time.Time {
	return s.now().UTC()
}

func (s *Service) begin(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("qms repository is required")
	}
	return nil
}

func (s *Service) beginWrite(ctx context.Context, actor qms.Actor) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if s.uow == nil {
		return errors.New("qms unit of work is required")
	}
	if strings.TrimSpace(actor.ID) == "" {
		return errs.Validation(errActorRequired)
	}
	return nil
}

// classify attaches an error kind to domain sentinels. Already classified
// errors keep their kind; anything else from the store is a persistence error.
func classify(err error) error {
	if err == nil || errs.KindOf(err) != errs.KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, qms.ErrRoleNotPermitted):
		return errs.Permission(err)
	case errors.Is(err, ports.ErrRecordNotFound):
		return errs.NotFound(err)
	case isDomainValidation(err):
		return errs.Validation(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errs.Persistence(err)
	}
}

var validationSentinels = []error{
	qms.ErrInvalidDate,
	qms.ErrSeverityOutOfRange,
	qms.ErrLikelihoodOutOfRange,
	qms.ErrInvalidCARSeverity,
	qms.ErrInvalidCARStatus,
	qms.ErrInvalidVerification,
	qms.ErrInvalidEffectiveness,
	qms.ErrInvalidRiskStatus,
	qms.ErrInvalidRole,
	qms.ErrFindingRequired,
	qms.ErrHazardRequired,
	qms.ErrCARClosed,
	qms.ErrNotPendingVerification,
	qms.ErrChecklistIncomplete,
	qms.ErrEvidenceIndex,
	qms.ErrEvidenceNameRequired,
}

func isDomainValidation(err error) bool {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// inTx runs fn in one transaction, classifying its error before the unit of
// work sees it so domain rejections keep their kind.
func (s *Service) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return classify(fn(txCtx))
	})
}
