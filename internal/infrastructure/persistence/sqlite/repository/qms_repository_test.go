package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
	"aeroqualify/internal/ports"
)

func setupQMSRepository(t *testing.T) (*QMSRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "qms.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewQMSRepository(db), db
}

func sampleCAR(id string, createdAt time.Time) qms.CAR {
	return qms.CAR{
		ID:                 id,
		Title:              "Torque seal missing",
		FindingDescription: "Torque seal missing on wheel nut",
		Severity:           qms.SeverityMajor,
		Status:             qms.CARStatusOpen,
		ResponsibleManager: "Maintenance Manager",
		DateRaised:         qms.DateOf(createdAt),
		DueDate:            qms.DateOf(createdAt).AddDays(30),
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func TestCARRoundTripAndOrdering(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	if err := repo.SaveCAR(ctx, sampleCAR("CAR-A", base)); err != nil {
		t.Fatalf("SaveCAR() error = %v", err)
	}
	if err := repo.SaveCAR(ctx, sampleCAR("CAR-B", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveCAR() error = %v", err)
	}

	cars, err := repo.ListCARs(ctx)
	if err != nil {
		t.Fatalf("ListCARs() error = %v", err)
	}
	if len(cars) != 2 || cars[0].ID != "CAR-B" {
		t.Fatalf("ListCARs() = %#v", cars)
	}

	got, err := repo.GetCAR(ctx, "CAR-A")
	if err != nil {
		t.Fatalf("GetCAR() error = %v", err)
	}
	if got.DueDate.String() != "2026-05-31" || !got.CreatedAt.Equal(base) {
		t.Fatalf("GetCAR() = %#v", got)
	}

	got.Status = qms.CARStatusInProgress
	if err := repo.SaveCAR(ctx, got); err != nil {
		t.Fatalf("SaveCAR(update) error = %v", err)
	}
	got, err = repo.GetCAR(ctx, "CAR-A")
	if err != nil || got.Status != qms.CARStatusInProgress {
		t.Fatalf("GetCAR() after update = %#v, %v", got, err)
	}
}

func TestGetCARNotFound(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	_, err := repo.GetCAR(context.Background(), "CAR-missing")
	if !errors.Is(err, ports.ErrRecordNotFound) || !errs.IsNotFound(err) {
		t.Fatalf("GetCAR() error = %v, want not found", err)
	}
}

func TestCAPUpsertByCARAndEvidence(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	c := qms.CAP{ID: "CAP-1", CARID: "CAR-A", ImmediateAction: "a", Status: qms.CAPStatusPending, SubmittedAt: now}
	c.AddEvidence(qms.EvidenceFile{Name: "one.pdf", URL: "evidence/CAR-A/one.pdf", Size: 10})
	if err := repo.SaveCAP(ctx, c); err != nil {
		t.Fatalf("SaveCAP() error = %v", err)
	}

	c.ID = "CAP-other"
	c.AddEvidence(qms.EvidenceFile{Name: "two.pdf", URL: "evidence/CAR-A/two.pdf"})
	if err := repo.SaveCAP(ctx, c); err != nil {
		t.Fatalf("SaveCAP(second) error = %v", err)
	}

	caps, err := repo.ListCAPs(ctx)
	if err != nil {
		t.Fatalf("ListCAPs() error = %v", err)
	}
	if len(caps) != 1 {
		t.Fatalf("ListCAPs() len = %d, want one row per car", len(caps))
	}
	got := caps[0]
	if got.ID != "CAP-1" || len(got.EvidenceFiles) != 2 || got.EvidenceFiles[1].Name != "two.pdf" {
		t.Fatalf("CAP = %#v", got)
	}
	if got.EvidenceFilename != "one.pdf" {
		t.Fatalf("legacy mirror = %q", got.EvidenceFilename)
	}
}

func TestCAPLegacyEvidenceReadPath(t *testing.T) {
	repo, db := setupQMSRepository(t)
	ctx := context.Background()

	legacy := model.CAP{
		ID:               "CAP-old",
		CARID:            "CAR-old",
		EvidenceFiles:    nil,
		EvidenceFilename: "scan.jpg",
		EvidenceURL:      "https://files.example/scan.jpg",
		Status:           string(qms.CAPStatusPending),
		SubmittedAt:      "2024-01-01T00:00:00Z",
	}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("insert legacy cap: %v", err)
	}

	got, err := repo.GetCAPByCAR(ctx, "CAR-old")
	if err != nil {
		t.Fatalf("GetCAPByCAR() error = %v", err)
	}
	if len(got.EvidenceFiles) != 1 || got.EvidenceFiles[0].URL != "https://files.example/scan.jpg" {
		t.Fatalf("EvidenceFiles = %#v", got.EvidenceFiles)
	}
}

func TestDeleteCARCascades(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)

	if err := repo.SaveCAR(ctx, sampleCAR("CAR-X", now)); err != nil {
		t.Fatalf("SaveCAR() error = %v", err)
	}
	if err := repo.SaveCAP(ctx, qms.CAP{ID: "CAP-X", CARID: "CAR-X", Status: qms.CAPStatusPending, SubmittedAt: now}); err != nil {
		t.Fatalf("SaveCAP() error = %v", err)
	}
	if err := repo.SaveVerification(ctx, qms.Verification{ID: "VRF-X", CARID: "CAR-X", Status: qms.VerificationPending,
		EffectivenessRating: qms.EffectivenessPending, VerifiedAt: now}); err != nil {
		t.Fatalf("SaveVerification() error = %v", err)
	}

	if err := repo.DeleteCAR(ctx, "CAR-X"); err != nil {
		t.Fatalf("DeleteCAR() error = %v", err)
	}
	if _, err := repo.GetCAPByCAR(ctx, "CAR-X"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("GetCAPByCAR() after delete error = %v", err)
	}
	if _, err := repo.GetVerificationByCAR(ctx, "CAR-X"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("GetVerificationByCAR() after delete error = %v", err)
	}
	if err := repo.DeleteCAR(ctx, "CAR-X"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("DeleteCAR(again) error = %v", err)
	}
}

func TestRiskAndRegisters(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	risk := qms.RiskEntry{ID: "RSK-1", HazardDescription: "bird strike", Severity: 5, Likelihood: 4,
		Status: qms.RiskOpen, TargetDate: qms.MustParseDate("2026-06-01"), CreatedAt: now, UpdatedAt: now}
	if err := risk.Derive(); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if err := repo.SaveRisk(ctx, risk); err != nil {
		t.Fatalf("SaveRisk() error = %v", err)
	}
	got, err := repo.GetRisk(ctx, "RSK-1")
	if err != nil {
		t.Fatalf("GetRisk() error = %v", err)
	}
	if got.InherentIndex != 20 || got.InherentRating != qms.BandCritical || got.TargetDate.String() != "2026-06-01" {
		t.Fatalf("GetRisk() = %#v", got)
	}

	if err := repo.SaveFlightDoc(ctx, qms.FlightDoc{ID: "FD-1", Title: "AOC", Status: "Valid",
		ExpiryDate: qms.MustParseDate("2027-01-01"), UpdatedAt: now}); err != nil {
		t.Fatalf("SaveFlightDoc() error = %v", err)
	}
	docs, err := repo.ListFlightDocs(ctx)
	if err != nil || len(docs) != 1 || docs[0].ExpiryDate.String() != "2027-01-01" {
		t.Fatalf("ListFlightDocs() = %#v, %v", docs, err)
	}
	if err := repo.DeleteRegisterRecord(ctx, qms.RegisterFlightDocs, "FD-1"); err != nil {
		t.Fatalf("DeleteRegisterRecord() error = %v", err)
	}
	if err := repo.DeleteRegisterRecord(ctx, qms.RegisterKind("bogus"), "x"); !errs.IsValidation(err) {
		t.Fatalf("DeleteRegisterRecord(bogus) error = %v", err)
	}
}

func TestManagersUpsertByRoleTitle(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()

	if err := repo.SaveManager(ctx, qms.ResponsibleManager{ID: "M-1", RoleTitle: "Quality Manager", Email: "old@example.com"}); err != nil {
		t.Fatalf("SaveManager() error = %v", err)
	}
	if err := repo.SaveManager(ctx, qms.ResponsibleManager{ID: "M-2", RoleTitle: "Quality Manager", Email: "new@example.com"}); err != nil {
		t.Fatalf("SaveManager(update) error = %v", err)
	}
	roster, err := repo.ListManagers(ctx)
	if err != nil {
		t.Fatalf("ListManagers() error = %v", err)
	}
	if len(roster) != 1 || roster.EmailFor("quality manager") != "new@example.com" {
		t.Fatalf("ListManagers() = %#v", roster)
	}
}

func TestChangeLogNewestFirstWithLimit(t *testing.T) {
	repo, _ := setupQMSRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"c1", "c2", "c3"} {
		if err := repo.AppendChange(ctx, qms.ChangeEntry{ID: id, Action: qms.ActionCreate, Table: qms.TableCARs,
			RecordID: "CAR-1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("AppendChange() error = %v", err)
		}
	}
	entries, err := repo.ListChanges(ctx, 2)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "c3" || entries[1].ID != "c2" {
		t.Fatalf("ListChanges() = %#v", entries)
	}
}

func TestWritesJoinCallerTransaction(t *testing.T) {
	repo, db := setupQMSRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 6, 9, 0, 0, 0, time.UTC)

	wantErr := errors.New("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		txCtx := ports.WithTxContext(ctx, tx)
		if err := repo.SaveCAR(txCtx, sampleCAR("CAR-T", now)); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Transaction() error = %v", err)
	}
	if _, err := repo.GetCAR(ctx, "CAR-T"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("CAR survived rollback: %v", err)
	}
}
