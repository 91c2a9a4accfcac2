package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := decodeJSON(r, &settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings.BusinessName = sanitizeInput(settings.BusinessName)
	settings.TaxNumber = sanitizeInput(settings.TaxNumber)
	settings.VATID = sanitizeInput(settings.VATID)

	if err := s.repo.UpdateSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type taxTreatmentInfo struct {
	Value core.Treatment   `json:"value"`
	Label string           `json:"label"`
	Rate  *decimal.Decimal `json:"rate,omitempty"`
}

// handleTaxTreatments lists the selectable treatments under the current
// settings. In Kleinunternehmer mode only "none" remains.
func (s *Server) handleTaxTreatments(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if settings.TaxMode == core.TaxModeKleinunternehmer {
		writeJSON(w, http.StatusOK, []taxTreatmentInfo{
			{Value: core.TreatmentNone, Label: core.TreatmentLabels[core.TreatmentNone]},
		})
		return
	}

	ordered := []core.Treatment{
		core.TreatmentNone,
		core.TreatmentStandard,
		core.TreatmentReduced,
		core.TreatmentTaxFree,
		core.TreatmentReverseCharge,
		core.TreatmentIntraEU,
		core.TreatmentCustom,
	}
	treatments := make([]taxTreatmentInfo, 0, len(ordered))
	for _, treatment := range ordered {
		info := taxTreatmentInfo{Value: treatment, Label: core.TreatmentLabels[treatment]}
		switch treatment {
		case core.TreatmentStandard:
			rate := settings.TaxRate
			info.Rate = &rate
		case core.TreatmentReduced:
			rate := settings.TaxRateReduced
			info.Rate = &rate
		}
		treatments = append(treatments, info)
	}
	writeJSON(w, http.StatusOK, treatments)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", 0)
	if year == 0 {
		s.writeError(w, r, core.Validationf("year query parameter is required"))
		return
	}
	summary, err := s.summaries.YearSummary(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleVerifyAudit checks the audit trail hash chain.
func (s *Server) handleVerifyAudit(w http.ResponseWriter, r *http.Request) {
	broken, err := s.repo.VerifyAuditChain(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if broken >= 0 {
		writeJSON(w, http.StatusOK, map[string]any{"intact": false, "first_broken_index": broken})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intact": true})
}
