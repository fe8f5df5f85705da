package handlers

import (
	"net/http"

	"github.com/aidosbek/swisscut/services"
)

// ProgressionHandler — операции двигателя турнира: генерация раундов
// швейцарки, таблица, посев топ-ката, продвижение и откат сетки.
type ProgressionHandler struct {
	progressionService services.ProgressionService
}

func NewProgressionHandler(progressionService services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progressionService: progressionService}
}

func (h *ProgressionHandler) GenerateSwissRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	roundNumber, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var result *services.SwissRoundResult
	if roundNumber == 1 {
		result, err = h.progressionService.GenerateSwissRound1(r.Context(), tournamentID)
	} else {
		result, err = h.progressionService.GenerateSwissRound(r.Context(), tournamentID, roundNumber)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressionHandler) Standings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.progressionService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressionHandler) GenerateTopCut(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		CutSize *int `json:"cut_size,omitempty"`
	}
	// Тело опционально: без него берётся cut_size турнира.
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	matches, err := h.progressionService.GenerateTopCut(r.Context(), tournamentID, input.CutSize)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressionHandler) AdvanceBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.progressionService.AdvanceBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressionHandler) ResetBracketRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	roundNumber, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.progressionService.ResetBracketRound(r.Context(), tournamentID, roundNumber); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
