package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"podium/internal/mailer"
)

// @Summary      Send a contact message
// @Description  Emails the message to the site owner and a confirmation to the sender.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contactMessage  body      mailer.ContactMessage  true  "Message"
// @Success      200             {object}  MessageResponse
// @Failure      400             {object}  MessageResponse
// @Failure      500             {object}  MessageResponse
// @Failure      503             {object}  MessageResponse
// @Router       /contact [post]
func (s *Server) ContactHandler(w http.ResponseWriter, r *http.Request) {
	var msg mailer.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := msg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Msg: "Please check the form and try again.", Error: err.Error()})
		return
	}

	err := s.mailer.SendContact(r.Context(), msg)
	switch {
	case err == nil:
	case mailer.IsConfirmationFailure(err):
		s.log.Warn().Err(err).Msg("contact confirmation email failed")
	case errors.Is(err, mailer.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "Contact form is not available right now.")
		return
	default:
		s.log.Error().Err(err).Msg("failed to send contact email")
		writeMessage(w, http.StatusInternalServerError, "Failed to send message. Please try again later.")
		return
	}

	writeMessage(w, http.StatusOK, "Message sent successfully! We'll get back to you soon.")
}
