package capa

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/changefeed"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "aeroqualify/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "aeroqualify/internal/infrastructure/persistence/sqlite/uow"
	"aeroqualify/internal/ports"
)

type testCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []qms.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, note qms.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) byType(event qms.EventType) []qms.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []qms.Notification
	for _, note := range n.sent {
		if note.Type == event {
			out = append(out, note)
		}
	}
	return out
}

type stubEvidence struct {
	fail map[string]bool
}

func (e stubEvidence) Put(_ context.Context, carID string, upload ports.EvidenceUpload) (qms.EvidenceFile, error) {
	if e.fail[upload.Name] {
		return qms.EvidenceFile{}, errors.New("bucket unavailable")
	}
	return qms.EvidenceFile{Name: upload.Name, URL: "https://files.test/" + carID + "/" + upload.Name, Size: int64(len(upload.Data))}, nil
}

var (
	admin   = qms.Actor{ID: "u-admin", Name: "Ada Admin", Role: qms.RoleAdmin}
	qm      = qms.Actor{ID: "u-qm", Name: "Quinn QM", Role: qms.RoleQualityManager}
	auditor = qms.Actor{ID: "u-aud", Name: "Avery Auditor", Role: qms.RoleQualityAuditor}
	manager = qms.Actor{ID: "u-mgr", Email: "mm@example.com", Role: qms.RoleManager}
	viewer  = qms.Actor{ID: "u-view", Role: qms.RoleViewer}
)

type ServiceSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	cache    *testCache
	feed     *changefeed.LocalFeed
	now      time.Time
	ids      int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	dsn := filepath.Join(s.T().TempDir(), "qms.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = sqlDB.Close() })
	s.Require().NoError(db.AutoMigrate(model.All()...))

	s.db = db
	s.notifier = &recordingNotifier{}
	s.cache = newTestCache()
	s.feed = changefeed.NewLocalFeed()
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ids = 0

	s.svc = NewService(sqliterepo.NewQMSRepository(db), sqliteuow.NewUnitOfWork(db), Options{
		Cache:    s.cache,
		Notifier: s.notifier,
		Feed:     s.feed,
		Evidence: stubEvidence{fail: map[string]bool{"broken.pdf": true}},
	})
	s.svc.now = func() time.Time { return s.now }
	s.svc.newID = func(prefix string) string {
		s.ids++
		return prefix + "-" + string(rune('A'+s.ids-1)) + "0000000"
	}

	_, err = s.svc.ApplyRoster(context.Background(), admin, qms.Roster{
		{RoleTitle: qms.QualityManagerTitle, PersonName: "Quinn", Email: "qm@example.com"},
		{RoleTitle: "Maintenance Manager", PersonName: "Morgan", Email: "mm@example.com"},
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *ServiceSuite) raise(finding string) qms.CAR {
	car, err := s.svc.RaiseCAR(context.Background(), auditor, RaiseCARInput{
		FindingDescription: finding,
		QMSClause:          "5.3.2",
		Severity:           "Major",
		ResponsibleManager: "Maintenance Manager",
		DueDate:            qms.DateOf(s.now).AddDays(20).String(),
	})
	s.Require().NoError(err)
	return car
}

func completeCAP(carID string) SubmitCAPInput {
	return SubmitCAPInput{
		CARID:             carID,
		ImmediateAction:   "Grounded aircraft",
		RootCauseAnalysis: "Checklist step skipped",
		CorrectiveAction:  "Re-torqued and sealed",
		PreventiveAction:  "Added duplicate inspection",
		Evidence:          []qms.EvidenceFile{{Name: "photo.jpg", URL: "https://files.test/photo.jpg"}},
	}
}

func (s *ServiceSuite) TestFullLifecycleClosesCARAndRaisesClosureScore() {
	ctx := context.Background()
	car := s.raise("Torque seal missing on left main wheel nut")

	s.Equal(qms.CARStatusOpen, car.Status)
	s.Equal("Torque seal missing on left main wheel nut", car.Title)
	s.Equal(qms.DateOf(s.now), car.DateRaised)
	s.Equal(qms.DueOnTrack, qms.Classify(car.DueDate, qms.DateOf(s.now)))
	newCAR := s.notifier.byType(qms.EventNewCAR)
	s.Require().Len(newCAR, 1)
	s.Equal([]string{"mm@example.com"}, newCAR[0].Recipients)

	s.advance(time.Hour)
	capRes, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.Equal(qms.CAPStatusComplete, capRes.CAP.Status)
	s.Equal(qms.CARStatusPendingVerification, capRes.CAR.Status)
	s.Equal("photo.jpg", capRes.CAP.EvidenceFilename)
	capNotes := s.notifier.byType(qms.EventCAPSubmitted)
	s.Require().Len(capNotes, 1)
	s.Equal([]string{"qm@example.com"}, capNotes[0].Recipients)

	before, err := s.svc.Score(ctx)
	s.Require().NoError(err)
	p1, ok := before.Score.PillarByKey("capa_closure")
	s.Require().True(ok)
	s.Equal(0, p1.Score)

	s.advance(time.Hour)
	vRes, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{
		CARID:               car.ID,
		Checklist:           qms.Checklist{ImmediateActionOK: true, RootCauseOK: true, CorrectiveActionOK: true, PreventiveActionOK: true, EvidenceOK: true, RecurrencePrevented: true},
		EffectivenessRating: "Effective",
		Status:              "Closed",
	})
	s.Require().NoError(err)
	s.Equal(qms.CARStatusClosed, vRes.CAR.Status)
	s.True(vRes.Recommendation.RecommendClose)
	verNotes := s.notifier.byType(qms.EventVerificationSubmitted)
	s.Require().Len(verNotes, 1)
	s.Equal([]string{"mm@example.com"}, verNotes[0].Recipients)

	after, err := s.svc.Score(ctx)
	s.Require().NoError(err)
	p1, _ = after.Score.PillarByKey("capa_closure")
	s.Equal(25, p1.Score)
	s.Equal(100, after.Score.Total)

	drifts, err := s.svc.Check(ctx)
	s.Require().NoError(err)
	s.Empty(drifts)

	changes, err := s.svc.Changes(ctx, 0)
	s.Require().NoError(err)
	tables := map[string]int{}
	for _, c := range changes {
		tables[c.Table]++
	}
	s.Equal(1, tables[qms.TableCARs])
	s.Equal(1, tables[qms.TableCAPs])
	s.Equal(1, tables[qms.TableVerifications])
}

func (s *ServiceSuite) TestCAPWithoutEvidenceStaysPending() {
	ctx := context.Background()
	car := s.raise("Fire extinguisher overdue for inspection")

	input := completeCAP(car.ID)
	input.Evidence = nil
	res, err := s.svc.SubmitCAP(ctx, manager, input)
	s.Require().NoError(err)
	s.Equal(qms.CAPStatusPending, res.CAP.Status)
	s.Equal(qms.CARStatusInProgress, res.CAR.Status)
	s.Empty(s.notifier.byType(qms.EventCAPSubmitted))
}

func (s *ServiceSuite) TestResubmittingSameCAPIsIdempotentAndNotifiesOnce() {
	ctx := context.Background()
	car := s.raise("Logbook entry unsigned")

	first, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.advance(time.Minute)
	second, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	s.Equal(first.CAR.Status, second.CAR.Status)
	s.Equal(first.CAP.Status, second.CAP.Status)
	s.Equal(first.CAP.ID, second.CAP.ID)
	s.Len(second.CAP.EvidenceFiles, 1)
	s.Len(s.notifier.byType(qms.EventCAPSubmitted), 1)
	s.True(second.CAR.UpdatedAt.After(first.CAR.UpdatedAt))
}

func (s *ServiceSuite) TestOverdueCARResubmissionNotifiesQualityManager() {
	ctx := context.Background()
	car := s.raise("Borescope inspection record incomplete")

	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.advance(time.Hour)
	verified, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{CARID: car.ID, Status: "Overdue"})
	s.Require().NoError(err)
	s.Equal(qms.CARStatusOverdue, verified.CAR.Status)

	s.advance(time.Hour)
	res, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.Equal(qms.CARStatusPendingVerification, res.CAR.Status)
	notes := s.notifier.byType(qms.EventCAPSubmitted)
	s.Require().Len(notes, 2)
	s.Equal([]string{"qm@example.com"}, notes[1].Recipients)

	s.advance(time.Minute)
	_, err = s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.Len(s.notifier.byType(qms.EventCAPSubmitted), 2)
}

func (s *ServiceSuite) TestRepeatedPendingVerificationNotifiesOnce() {
	ctx := context.Background()
	car := s.raise("Deferred defect not entered in tech log")
	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	pending := SubmitVerificationInput{CARID: car.ID, Status: "Pending", VerifierComments: "Need the work card"}
	_, err = s.svc.SubmitVerification(ctx, qm, pending)
	s.Require().NoError(err)
	s.advance(time.Minute)
	_, err = s.svc.SubmitVerification(ctx, qm, pending)
	s.Require().NoError(err)
	s.Len(s.notifier.byType(qms.EventVerificationSubmitted), 1)

	s.advance(time.Minute)
	closed, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{CARID: car.ID, Status: "Closed"})
	s.Require().NoError(err)
	s.Equal(qms.CARStatusClosed, closed.CAR.Status)
	s.Len(s.notifier.byType(qms.EventVerificationSubmitted), 2)
}

func (s *ServiceSuite) TestNameOnlyEvidenceIsNotDuplicatedOnResubmit() {
	ctx := context.Background()
	car := s.raise("Paper torque log not scanned")

	input := completeCAP(car.ID)
	input.Evidence = append(input.Evidence, qms.EvidenceFile{Name: "paper torque log"})
	_, err := s.svc.SubmitCAP(ctx, manager, input)
	s.Require().NoError(err)
	s.advance(time.Minute)
	res, err := s.svc.SubmitCAP(ctx, manager, input)
	s.Require().NoError(err)

	s.Require().Len(res.CAP.EvidenceFiles, 2)
	s.Equal("photo.jpg", res.CAP.EvidenceFiles[0].Name)
	s.Equal("paper torque log", res.CAP.EvidenceFiles[1].Name)
}

func (s *ServiceSuite) TestUploadsAreStoredOrSkipped() {
	ctx := context.Background()
	car := s.raise("Hangar door seal damaged")

	input := completeCAP(car.ID)
	input.Evidence = nil
	input.Uploads = []ports.EvidenceUpload{
		{Name: "broken.pdf", Data: []byte("x")},
		{Name: "work-order.pdf", Data: []byte("%PDF")},
	}
	res, err := s.svc.SubmitCAP(ctx, manager, input)
	s.Require().NoError(err)
	s.Equal([]string{"broken.pdf"}, res.Skipped)
	s.Require().Len(res.CAP.EvidenceFiles, 1)
	s.Equal("work-order.pdf", res.CAP.EvidenceFiles[0].Name)
	s.Equal(qms.CARStatusPendingVerification, res.CAR.Status)
}

func (s *ServiceSuite) TestAddEvidenceKeepsPlanTexts() {
	ctx := context.Background()
	car := s.raise("Placard missing on cargo door")

	input := completeCAP(car.ID)
	input.Evidence = nil
	_, err := s.svc.SubmitCAP(ctx, manager, input)
	s.Require().NoError(err)

	res, err := s.svc.AddEvidence(ctx, manager, car.ID, []qms.EvidenceFile{{Name: "placard.jpg", URL: "https://files.test/placard.jpg"}}, nil)
	s.Require().NoError(err)
	s.Equal("Grounded aircraft", res.CAP.ImmediateAction)
	s.Require().Len(res.CAP.EvidenceFiles, 1)
	s.Equal(qms.CARStatusPendingVerification, res.CAR.Status)

	_, err = s.svc.AddEvidence(ctx, manager, car.ID, nil, nil)
	s.True(errs.IsValidation(err))
}

func (s *ServiceSuite) TestRemovingLastEvidenceReturnsCARToInProgress() {
	ctx := context.Background()
	car := s.raise("Tool control board missing wrench")
	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	res, err := s.svc.RemoveEvidence(ctx, manager, car.ID, 0)
	s.Require().NoError(err)
	s.Empty(res.CAP.EvidenceFiles)
	s.Empty(res.CAP.EvidenceFilename)
	s.Empty(res.CAP.EvidenceURL)
	s.Equal(qms.CAPStatusPending, res.CAP.Status)
	s.Equal(qms.CARStatusInProgress, res.CAR.Status)

	_, err = s.svc.RemoveEvidence(ctx, manager, car.ID, 0)
	s.True(errs.IsValidation(err), "err = %v", err)
	s.ErrorIs(err, qms.ErrEvidenceIndex)
}

func (s *ServiceSuite) TestVerificationGuards() {
	ctx := context.Background()
	car := s.raise("Calibration label expired")

	_, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{CARID: car.ID, Status: "Closed"})
	s.True(errs.IsValidation(err), "err = %v", err)
	s.ErrorIs(err, qms.ErrNotPendingVerification)

	_, err = s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	_, err = s.svc.SubmitVerification(ctx, manager, SubmitVerificationInput{CARID: car.ID, Status: "Closed"})
	s.True(errs.IsPermission(err), "err = %v", err)

	stored, err := s.svc.GetCAR(ctx, car.ID)
	s.Require().NoError(err)
	s.Equal(qms.CARStatusPendingVerification, stored.CAR.Status)
	s.Nil(stored.Verification)
}

func (s *ServiceSuite) TestAdvisoryGateClosesWithUncheckedItems() {
	ctx := context.Background()
	car := s.raise("Weight and balance sheet outdated")
	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	res, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{CARID: car.ID, Status: "Closed"})
	s.Require().NoError(err)
	s.Equal(qms.CARStatusClosed, res.CAR.Status)
	s.False(res.Recommendation.RecommendClose)
}

func (s *ServiceSuite) TestStrictGateRejectsClosedUntilAllChecked() {
	ctx := context.Background()
	s.svc.gate = qms.GateStrict
	car := s.raise("MEL deferral exceeded")
	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	_, err = s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{
		CARID:     car.ID,
		Checklist: qms.Checklist{ImmediateActionOK: true},
		Status:    "Closed",
	})
	s.True(errs.IsValidation(err), "err = %v", err)
	s.ErrorIs(err, qms.ErrChecklistIncomplete)

	res, err := s.svc.SubmitVerification(ctx, qm, SubmitVerificationInput{CARID: car.ID, Status: "Overdue"})
	s.Require().NoError(err)
	s.Equal(qms.CARStatusOverdue, res.CAR.Status)

	// An overdue CAR re-enters the lifecycle through a new CAP.
	s.advance(time.Hour)
	again, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)
	s.Equal(qms.CARStatusPendingVerification, again.CAR.Status)

	drifts, err := s.svc.Check(ctx)
	s.Require().NoError(err)
	s.Empty(drifts)
}

func (s *ServiceSuite) TestNotificationFailureDoesNotRollBack() {
	ctx := context.Background()
	s.notifier.err = errors.New("smtp down")

	car := s.raise("Fuel sample not recorded")
	stored, err := s.svc.GetCAR(ctx, car.ID)
	s.Require().NoError(err)
	s.Equal(qms.CARStatusOpen, stored.CAR.Status)
}

func (s *ServiceSuite) TestRolesAreEnforced() {
	ctx := context.Background()

	_, err := s.svc.RaiseCAR(ctx, manager, RaiseCARInput{FindingDescription: "x", Severity: "Minor"})
	s.True(errs.IsPermission(err), "err = %v", err)

	_, err = s.svc.RaiseCAR(ctx, auditor, RaiseCARInput{Severity: "Minor"})
	s.ErrorIs(err, qms.ErrFindingRequired)

	_, err = s.svc.RaiseCAR(ctx, auditor, RaiseCARInput{FindingDescription: "x", Severity: "Severe"})
	s.True(errs.IsValidation(err), "err = %v", err)

	car := s.raise("Cabin placard missing")
	_, err = s.svc.SubmitCAP(ctx, viewer, completeCAP(car.ID))
	s.True(errs.IsPermission(err), "err = %v", err)

	s.True(errs.IsPermission(s.svc.DeleteCAR(ctx, qm, car.ID)))
	s.Require().NoError(s.svc.DeleteCAR(ctx, admin, car.ID))
	_, err = s.svc.GetCAR(ctx, car.ID)
	s.True(errs.IsNotFound(err), "err = %v", err)
}

func (s *ServiceSuite) TestEditCARNeverChangesStatus() {
	ctx := context.Background()
	car := s.raise("Oxygen bottle pressure low")
	_, err := s.svc.SubmitCAP(ctx, manager, completeCAP(car.ID))
	s.Require().NoError(err)

	sev := qms.SeverityCritical
	title := ""
	edited, err := s.svc.EditCAR(ctx, manager, EditCARInput{ID: car.ID, Patch: qms.CARPatch{Severity: &sev, Title: &title}})
	s.Require().NoError(err)
	s.Equal(qms.SeverityCritical, edited.Severity)
	s.Equal(qms.CARStatusPendingVerification, edited.Status)
	s.Equal("Oxygen bottle pressure low", edited.Title)
}

func (s *ServiceSuite) TestRiskRatingsAreDerived() {
	ctx := context.Background()

	risk, err := s.svc.SaveRisk(ctx, auditor, qms.RiskEntry{
		HazardDescription:  "Bird strike on approach",
		Severity:           5,
		Likelihood:         4,
		ResidualSeverity:   2,
		ResidualLikelihood: 2,
		TreatmentAction:    "Wildlife patrols",
		Status:             "under treatment",
	})
	s.Require().NoError(err)
	s.Equal(20, risk.InherentIndex)
	s.Equal(qms.BandCritical, risk.InherentRating)
	s.Equal(4, risk.ResidualIndex)
	s.Equal(qms.BandLow, risk.ResidualRating)
	s.Equal(qms.RiskUnderTreatment, risk.Status)

	_, err = s.svc.SaveRisk(ctx, auditor, qms.RiskEntry{HazardDescription: "x", Severity: 0, Likelihood: 3})
	s.True(errs.IsValidation(err), "err = %v", err)
	s.ErrorIs(err, qms.ErrSeverityOutOfRange)

	view, err := s.svc.ListRisks(ctx)
	s.Require().NoError(err)
	s.Equal(1, view.Stats.Total)

	s.True(errs.IsPermission(s.svc.DeleteRisk(ctx, auditor, risk.ID)))
	s.Require().NoError(s.svc.DeleteRisk(ctx, admin, risk.ID))
}

func (s *ServiceSuite) TestRegisterImportFeedsScoreAndAlerts() {
	ctx := context.Background()
	today := qms.DateOf(s.now)
	raw := []byte(`
flight_docs:
  - title: Air Operator Certificate
    status: Valid
    expiry_date: ` + today.AddDays(-3).String() + `
  - title: Insurance
    status: Valid
    expiry_date: ` + today.AddDays(200).String() + `
audits:
  - title: Line station audit
    status: Scheduled
    date: ` + today.AddDays(-1).String() + `
`)
	batch, err := ParseRegisterBatch(raw)
	s.Require().NoError(err)

	_, err = s.svc.SaveRegisters(ctx, auditor, batch)
	s.True(errs.IsPermission(err), "err = %v", err)

	summary, err := s.svc.SaveRegisters(ctx, qm, batch)
	s.Require().NoError(err)
	s.Equal(2, summary.FlightDocs)
	s.Equal(1, summary.Audits)

	alerts, err := s.svc.Alerts(ctx)
	s.Require().NoError(err)
	s.Require().Len(alerts.Alerts, 2)
	s.Equal(qms.AlertFlightDoc, alerts.Alerts[0].Source)
	s.Equal(qms.DueOverdue, alerts.Alerts[0].State)

	_, err = ParseRegisterBatch([]byte("bogus: 1\n"))
	s.True(errs.IsValidation(err), "err = %v", err)
}

func (s *ServiceSuite) TestMissingCollectionDegradesToEmpty() {
	ctx := context.Background()
	s.raise("Ground power cable frayed")
	s.Require().NoError(s.db.Migrator().DropTable(&model.Risk{}))

	report, err := s.svc.Dashboard(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"risks"}, report.Degraded)
	s.Equal(1, report.Dashboard.CARsByStatus[qms.CARStatusOpen])
	s.Empty(report.Dashboard.Risks.Total)
}

func (s *ServiceSuite) TestApplyRosterKeepsIDs() {
	ctx := context.Background()
	before, err := s.svc.ListManagers(ctx)
	s.Require().NoError(err)
	qmRow, ok := before.FindByRoleTitle(qms.QualityManagerTitle)
	s.Require().True(ok)

	saved, err := s.svc.SetManager(ctx, admin, qms.ResponsibleManager{RoleTitle: "quality manager", Email: "new-qm@example.com"})
	s.Require().NoError(err)
	s.Equal(qmRow.ID, saved.ID)
	s.Equal(qms.QualityManagerTitle, saved.RoleTitle)

	after, err := s.svc.ListManagers(ctx)
	s.Require().NoError(err)
	s.Len(after, 2)
	s.Equal("new-qm@example.com", after.EmailFor(qms.QualityManagerTitle))

	_, err = s.svc.SetManager(ctx, qm, qms.ResponsibleManager{RoleTitle: "Chief Pilot"})
	s.True(errs.IsPermission(err), "err = %v", err)
}

func (s *ServiceSuite) TestWatchChangesReloadsOnPublish() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan DashboardReport, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.svc.WatchChanges(ctx, func(r DashboardReport) { reloads <- r })
	}()

	// Subscription happens asynchronously; publish until the watcher reacts.
	deadline := time.After(5 * time.Second)
	for {
		s.Require().NoError(s.feed.Publish(context.Background(), qms.ChangeEvent{Table: qms.TableCARs}))
		select {
		case r := <-reloads:
			s.Equal(100, r.Dashboard.Score.Total)
			cancel()
			s.Require().NoError(<-done)
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			s.FailNow("no reload observed")
		}
	}
}

func TestNewRecordIDShape(t *testing.T) {
	id := newRecordID("CAR")
	require.Regexp(t, `^CAR-[0-9A-F]{8}$`, id)
}
