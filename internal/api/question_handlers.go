package api

import (
	"errors"
	"net/http"
	"strings"

	"podium/internal/database"

	_ "podium/internal/models"
)

const anyFilter = "All"

func questionFilter(r *http.Request, name string) string {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if strings.EqualFold(v, anyFilter) {
		return ""
	}
	return v
}

// @Summary      Random question
// @Description  Picks a random question. Omit a filter or pass "All" to match anything.
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        role      query     string  false  "Role, e.g. SDE"
// @Param        category  query     string  false  "Category, e.g. Behavioral"
// @Success      200       {object}  models.Question
// @Failure      404       {object}  MessageResponse
// @Failure      500       {object}  MessageResponse
// @Router       /questions/random [get]
func (s *Server) RandomQuestionHandler(w http.ResponseWriter, r *http.Request) {
	q, err := s.store.RandomQuestion(r.Context(), questionFilter(r, "role"), questionFilter(r, "category"))
	if err != nil {
		if errors.Is(err, database.ErrNoQuestions) {
			writeMessage(w, http.StatusNotFound, "No questions found matching your criteria.")
			return
		}
		s.log.Error().Err(err).Msg("failed to pick question")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// @Summary      Question filters
// @Description  Distinct roles and categories present in the question bank.
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.QuestionFilters
// @Failure      500  {object}  MessageResponse
// @Router       /questions/filters [get]
func (s *Server) QuestionFiltersHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := s.store.QuestionFilters(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list question filters")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, filters)
}
