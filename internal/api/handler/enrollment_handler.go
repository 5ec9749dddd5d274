package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// EnrollmentHandler handles the enrollment session lifecycle.
type EnrollmentHandler struct {
	enrollment ports.EnrollmentService
}

func NewEnrollmentHandler(enrollment ports.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment}
}

// Start handles POST /v1/enrollment/start — opens a session with
// pre-issued challenges.
//
// @Summary      Start an enrollment session
// @Tags         enrollment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startEnrollmentRequest  true  "Enrollment parameters"
// @Success      201   {object}  startEnrollmentResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /v1/enrollment/start [post]
func (h *EnrollmentHandler) Start(c echo.Context) error {
	var req startEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.enrollment.Start(c.Request().Context(), ports.StartEnrollmentInput{
		UserID:      req.UserID,
		TargetCount: req.TargetSamples,
		Force:       req.Force,
	})
	if err != nil {
		return err
	}

	resp := startEnrollmentResponse{
		SessionID: result.SessionID,
		ExpiresAt: result.ExpiresAt,
	}
	for _, ch := range result.Challenges {
		resp.Challenges = append(resp.Challenges, challengeResponse{
			ChallengeID: ch.ChallengeID,
			Phrase:      ch.PhraseText,
			ExpiresAt:   ch.ExpiresAt,
		})
	}
	return c.JSON(http.StatusCreated, resp)
}

// AddSample handles POST /v1/enrollment/:session_id/samples.
//
// @Summary      Submit one enrollment sample
// @Tags         enrollment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id  path  string            true  "Session id"
// @Param        body        body  addSampleRequest  true  "Sample audio"
// @Success      200   {object}  addSampleResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      410   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/enrollment/{session_id}/samples [post]
func (h *EnrollmentHandler) AddSample(c echo.Context) error {
	var req addSampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.enrollment.AddSample(c.Request().Context(), ports.AddSampleInput{
		SessionID:   c.Param("session_id"),
		ChallengeID: req.ChallengeID,
		Audio:       req.Audio,
	})
	if err != nil {
		return err
	}

	resp := addSampleResponse{
		Accepted:    result.Accepted,
		SNRDb:       result.Quality.SNRDb,
		DurationMs:  result.Quality.Duration.Milliseconds(),
		SampleCount: result.SampleCount,
		TargetCount: result.TargetCount,
		Ready:       result.Ready,
	}
	if result.NextChallenge != nil {
		resp.NextChallenge = &challengeResponse{
			ChallengeID: result.NextChallenge.ChallengeID,
			Phrase:      result.NextChallenge.PhraseText,
			ExpiresAt:   result.NextChallenge.ExpiresAt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Complete handles POST /v1/enrollment/:session_id/complete.
//
// @Summary      Complete enrollment and derive the voiceprint
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        session_id  path  string  true  "Session id"
// @Success      200   {object}  completeEnrollmentResponse
// @Failure      404   {object}  errorResponse
// @Failure      410   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/enrollment/{session_id}/complete [post]
func (h *EnrollmentHandler) Complete(c echo.Context) error {
	result, err := h.enrollment.Complete(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, completeEnrollmentResponse{
		VoiceprintID: result.VoiceprintID,
		Samples:      result.Samples,
		MeanSNRDb:    result.MeanSNRDb,
	})
}

// Cancel handles DELETE /v1/enrollment/:session_id — abandons the session.
//
// @Summary      Abandon an enrollment session
// @Tags         enrollment
// @Security     BearerAuth
// @Param        session_id  path  string  true  "Session id"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Failure      410   {object}  errorResponse
// @Router       /v1/enrollment/{session_id} [delete]
func (h *EnrollmentHandler) Cancel(c echo.Context) error {
	if err := h.enrollment.Cancel(c.Request().Context(), c.Param("session_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
