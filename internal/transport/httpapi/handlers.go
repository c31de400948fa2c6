package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
	"aeroqualify/internal/usecase/capa"
)

type raiseCARRequest struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	FindingDescription      string `json:"finding_description"`
	QMSClause               string `json:"qms_clause"`
	Severity                string `json:"severity"`
	Department              string `json:"department"`
	ResponsibleManager      string `json:"responsible_manager"`
	ResponsibleManagerEmail string `json:"responsible_manager_email"`
	DateRaised              string `json:"date_raised"`
	DueDate                 string `json:"due_date"`
}

// editCARRequest has no status field; status only moves through the CAP
// and verification endpoints.
type editCARRequest struct {
	Title                   *string   `json:"title"`
	FindingDescription      *string   `json:"finding_description"`
	QMSClause               *string   `json:"qms_clause"`
	Severity                *string   `json:"severity"`
	Department              *string   `json:"department"`
	ResponsibleManager      *string   `json:"responsible_manager"`
	ResponsibleManagerEmail *string   `json:"responsible_manager_email"`
	DateRaised              *qms.Date `json:"date_raised"`
	DueDate                 *qms.Date `json:"due_date"`
}

type uploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	// Data is base64 in JSON.
	Data []byte `json:"data"`
}

type submitCAPRequest struct {
	ImmediateAction   string             `json:"immediate_action"`
	RootCauseAnalysis string             `json:"root_cause_analysis"`
	CorrectiveAction  string             `json:"corrective_action"`
	PreventiveAction  string             `json:"preventive_action"`
	Evidence          []qms.EvidenceFile `json:"evidence"`
	Uploads           []uploadRequest    `json:"uploads"`
}

type addEvidenceRequest struct {
	Evidence []qms.EvidenceFile `json:"evidence"`
	Uploads  []uploadRequest    `json:"uploads"`
}

type submitVerificationRequest struct {
	Checklist           qms.Checklist `json:"checklist"`
	EffectivenessRating string        `json:"effectiveness_rating"`
	Status              string        `json:"status"`
	VerifierComments    string        `json:"verifier_comments"`
}

func (s *Server) listCARs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cars, err := s.svc.ListCARs(r.Context(), capa.ListCARsFilter{Status: q.Get("status"), Search: q.Get("search")})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

func (s *Server) raiseCAR(w http.ResponseWriter, r *http.Request) {
	var req raiseCARRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	car, err := s.svc.RaiseCAR(r.Context(), actorOf(r), capa.RaiseCARInput{
		ID:                      req.ID,
		Title:                   req.Title,
		FindingDescription:      req.FindingDescription,
		QMSClause:               req.QMSClause,
		Severity:                req.Severity,
		Department:              req.Department,
		ResponsibleManager:      req.ResponsibleManager,
		ResponsibleManagerEmail: req.ResponsibleManagerEmail,
		DateRaised:              req.DateRaised,
		DueDate:                 req.DueDate,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

func (s *Server) getCAR(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetCAR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) editCAR(w http.ResponseWriter, r *http.Request) {
	var req editCARRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	patch := qms.CARPatch{
		Title:                   req.Title,
		FindingDescription:      req.FindingDescription,
		QMSClause:               req.QMSClause,
		Department:              req.Department,
		ResponsibleManager:      req.ResponsibleManager,
		ResponsibleManagerEmail: req.ResponsibleManagerEmail,
		DateRaised:              req.DateRaised,
		DueDate:                 req.DueDate,
	}
	if req.Severity != nil {
		severity, err := qms.ParseSeverity(*req.Severity)
		if err != nil {
			writeError(r.Context(), w, errs.Validation(err))
			return
		}
		patch.Severity = &severity
	}

	car, err := s.svc.EditCAR(r.Context(), actorOf(r), capa.EditCARInput{ID: chi.URLParam(r, "id"), Patch: patch})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (s *Server) deleteCAR(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCAR(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitCAP(w http.ResponseWriter, r *http.Request) {
	var req submitCAPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	result, err := s.svc.SubmitCAP(r.Context(), actorOf(r), capa.SubmitCAPInput{
		CARID:             chi.URLParam(r, "id"),
		ImmediateAction:   req.ImmediateAction,
		RootCauseAnalysis: req.RootCauseAnalysis,
		CorrectiveAction:  req.CorrectiveAction,
		PreventiveAction:  req.PreventiveAction,
		Evidence:          req.Evidence,
		Uploads:           toUploads(req.Uploads),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) addEvidence(w http.ResponseWriter, r *http.Request) {
	var req addEvidenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	result, err := s.svc.AddEvidence(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.Evidence, toUploads(req.Uploads))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func toUploads(in []uploadRequest) []ports.EvidenceUpload {
	out := make([]ports.EvidenceUpload, 0, len(in))
	for _, u := range in {
		out = append(out, ports.EvidenceUpload{Name: u.Name, ContentType: u.ContentType, Data: u.Data})
	}
	return out
}

func (s *Server) removeEvidence(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(r.Context(), w, errs.Validation(errs.Wrap(err, "parse evidence index")))
		return
	}
	result, err := s.svc.RemoveEvidence(r.Context(), actorOf(r), chi.URLParam(r, "id"), index)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) submitVerification(w http.ResponseWriter, r *http.Request) {
	var req submitVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	result, err := s.svc.SubmitVerification(r.Context(), actorOf(r), capa.SubmitVerificationInput{
		CARID:               chi.URLParam(r, "id"),
		Checklist:           req.Checklist,
		EffectivenessRating: req.EffectivenessRating,
		Status:              req.Status,
		VerifierComments:    req.VerifierComments,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listRisks(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.ListRisks(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) saveRisk(w http.ResponseWriter, r *http.Request) {
	var risk qms.RiskEntry
	if err := decodeJSON(w, r, &risk); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	saved, err := s.svc.SaveRisk(r.Context(), actorOf(r), risk)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteRisk(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRisk(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) rateRisk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	severity, errS := strconv.Atoi(q.Get("severity"))
	likelihood, errL := strconv.Atoi(q.Get("likelihood"))
	if errS != nil || errL != nil {
		writeError(r.Context(), w, errs.Validation(errors.New("severity and likelihood must be integers 1-5")))
		return
	}
	rating, err := qms.Rate(severity, likelihood)
	if err != nil {
		writeError(r.Context(), w, errs.Validation(err))
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

func (s *Server) riskMatrix(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, qms.Matrix())
}

func (s *Server) saveRegisters(w http.ResponseWriter, r *http.Request) {
	var batch capa.RegisterBatch
	if err := decodeJSON(w, r, &batch); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	summary, err := s.svc.SaveRegisters(r.Context(), actorOf(r), batch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// saveRegisterRecord upserts one row of the register named in the path.
func (s *Server) saveRegisterRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := qms.ParseRegisterKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, errs.Validation(err))
		return
	}

	var batch capa.RegisterBatch
	switch kind {
	case qms.RegisterDocuments:
		batch.Documents = make([]qms.Document, 1)
		err = decodeJSON(w, r, &batch.Documents[0])
	case qms.RegisterFlightDocs:
		batch.FlightDocs = make([]qms.FlightDoc, 1)
		err = decodeJSON(w, r, &batch.FlightDocs[0])
	case qms.RegisterAudits:
		batch.Audits = make([]qms.Audit, 1)
		err = decodeJSON(w, r, &batch.Audits[0])
	case qms.RegisterContractors:
		batch.Contractors = make([]qms.Contractor, 1)
		err = decodeJSON(w, r, &batch.Contractors[0])
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	summary, err := s.svc.SaveRegisters(r.Context(), actorOf(r), batch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) listRegister(w http.ResponseWriter, r *http.Request) {
	kind, err := qms.ParseRegisterKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, errs.Validation(err))
		return
	}
	rows, err := s.svc.ListRegister(r.Context(), kind)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) deleteRegisterRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := qms.ParseRegisterKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, errs.Validation(err))
		return
	}
	if err := s.svc.DeleteRegisterRecord(r.Context(), actorOf(r), kind, chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listManagers(w http.ResponseWriter, r *http.Request) {
	roster, err := s.svc.ListManagers(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) setManager(w http.ResponseWriter, r *http.Request) {
	var m qms.ResponsibleManager
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	saved, err := s.svc.SetManager(r.Context(), actorOf(r), m)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteManager(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteManager(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Score(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) alerts(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Alerts(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	drift, err := s.svc.Check(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": drift})
}

func (s *Server) changes(w http.ResponseWriter, r *http.Request) {
	limit := capa.DefaultChangeLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(r.Context(), w, errs.Validation(errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}
	entries, err := s.svc.Changes(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// actorOf returns the authenticated actor. An unauthenticated request yields
// the zero actor, which the service rejects.
func actorOf(r *http.Request) qms.Actor {
	actor, _ := ActorFrom(r.Context())
	return actor
}
