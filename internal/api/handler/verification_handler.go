package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// VerificationHandler handles challenge issuance and verification attempts.
type VerificationHandler struct {
	challenges   ports.ChallengeService
	verification ports.VerificationService
}

func NewVerificationHandler(challenges ports.ChallengeService, verification ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{challenges: challenges, verification: verification}
}

// Start handles POST /v1/verification/start — issues a phrase challenge.
//
// @Summary      Issue a verification challenge
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startVerificationRequest  true  "Subject user"
// @Success      201   {object}  challengeResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /v1/verification/start [post]
func (h *VerificationHandler) Start(c echo.Context) error {
	var req startVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	challenge, err := h.challenges.Issue(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, challengeResponse{
		ChallengeID: challenge.ID,
		Phrase:      challenge.PhraseText,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

// Verify handles POST /v1/verification/verify — decides one attempt.
//
// @Summary      Verify an audio sample against a challenge
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyRequest  true  "Verification attempt"
// @Success      200   {object}  verifyResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      410   {object}  errorResponse
// @Failure      423   {object}  errorResponse
// @Router       /v1/verification/verify [post]
func (h *VerificationHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.verification.Verify(c.Request().Context(), ports.VerifyInput{
		UserID:      req.UserID,
		ChallengeID: req.ChallengeID,
		Audio:       req.Audio,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toVerifyResponse(result))
}

func toVerifyResponse(r *ports.VerifyResult) verifyResponse {
	return verifyResponse{
		AttemptID:   r.AttemptID,
		Accepted:    r.Accepted,
		Reason:      string(r.Reason),
		RetriesLeft: r.RetriesLeft,
		Scores: scoresResponse{
			Similarity:       toAdapterScore(r.Scores.Similarity),
			SpoofProbability: toAdapterScore(r.Scores.Spoof),
			PhraseMatch:      toAdapterScore(r.Scores.Phrase),
		},
	}
}

func toAdapterScore(s domain.AdapterScore) adapterScoreResponse {
	return adapterScoreResponse{
		Value:        s.Value,
		ModelName:    s.Model.Name,
		ModelVersion: s.Model.Version,
		LatencyMs:    s.Latency.Milliseconds(),
		TimedOut:     s.TimedOut,
	}
}
