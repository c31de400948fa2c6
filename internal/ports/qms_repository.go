package ports

import (
	"context"
	"errors"

	"aeroqualify/internal/domain/qms"
)

var ErrRecordNotFound = errors.New("record not found")

// QMSReadRepository is the query side of the record store. List methods
// return newest first unless noted.
type QMSReadRepository interface {
	ListCARs(ctx context.Context) ([]qms.CAR, error)
	GetCAR(ctx context.Context, id string) (qms.CAR, error)
	ListCAPs(ctx context.Context) ([]qms.CAP, error)
	GetCAPByCAR(ctx context.Context, carID string) (qms.CAP, error)
	ListVerifications(ctx context.Context) ([]qms.Verification, error)
	GetVerificationByCAR(ctx context.Context, carID string) (qms.Verification, error)
	ListRisks(ctx context.Context) ([]qms.RiskEntry, error)
	GetRisk(ctx context.Context, id string) (qms.RiskEntry, error)
	ListDocuments(ctx context.Context) ([]qms.Document, error)
	ListFlightDocs(ctx context.Context) ([]qms.FlightDoc, error)
	ListAudits(ctx context.Context) ([]qms.Audit, error)
	ListContractors(ctx context.Context) ([]qms.Contractor, error)
	// ListManagers is ordered by role title.
	ListManagers(ctx context.Context) (qms.Roster, error)
	ListChanges(ctx context.Context, limit int) ([]qms.ChangeEntry, error)
}

// QMSRepository adds writes. Save methods upsert by id (CAP and
// Verification by car_id); deletes of missing ids return ErrRecordNotFound.
type QMSRepository interface {
	QMSReadRepository
	SaveCAR(ctx context.Context, car qms.CAR) error
	// DeleteCAR also removes the CAR's CAP and Verification.
	DeleteCAR(ctx context.Context, id string) error
	SaveCAP(ctx context.Context, cap qms.CAP) error
	SaveVerification(ctx context.Context, v qms.Verification) error
	SaveRisk(ctx context.Context, risk qms.RiskEntry) error
	DeleteRisk(ctx context.Context, id string) error
	SaveDocument(ctx context.Context, doc qms.Document) error
	SaveFlightDoc(ctx context.Context, doc qms.FlightDoc) error
	SaveAudit(ctx context.Context, audit qms.Audit) error
	SaveContractor(ctx context.Context, c qms.Contractor) error
	DeleteRegisterRecord(ctx context.Context, kind qms.RegisterKind, id string) error
	SaveManager(ctx context.Context, m qms.ResponsibleManager) error
	DeleteManager(ctx context.Context, id string) error
	AppendChange(ctx context.Context, entry qms.ChangeEntry) error
}
