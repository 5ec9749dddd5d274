package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// AuditHandler exposes read-only audit trail queries. The audit service is
// the only component external reporting may read from.
type AuditHandler struct {
	audit ports.AuditService
}

func NewAuditHandler(audit ports.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditAttemptResponse struct {
	AttemptID   string         `json:"attempt_id"`
	UserID      string         `json:"user_id"`
	ChallengeID string         `json:"challenge_id"`
	Accepted    bool           `json:"accepted"`
	Reason      string         `json:"reason"`
	LatencyMs   int64          `json:"latency_ms"`
	CreatedAt   time.Time      `json:"created_at"`
	Scores      scoresResponse `json:"scores"`
}

type auditListResponse struct {
	Items []auditAttemptResponse `json:"items"`
	Count int                    `json:"count"`
}

// List handles GET /v1/audit/attempts.
//
// @Summary      Query the attempt audit trail
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query  string  false  "Filter by user"
// @Param        reason   query  string  false  "Filter by decision reason"
// @Param        from     query  string  false  "RFC3339 lower bound"
// @Param        to       query  string  false  "RFC3339 upper bound"
// @Param        limit    query  int     false  "Max rows (capped)"
// @Success      200   {object}  auditListResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/audit/attempts [get]
func (h *AuditHandler) List(c echo.Context) error {
	filter := ports.AuditFilter{
		UserID: c.QueryParam("user_id"),
		Reason: c.QueryParam("reason"),
	}

	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'from' timestamp")
		}
		filter.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'to' timestamp")
		}
		filter.To = t
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'limit'")
		}
		filter.Limit = n
	}

	records, err := h.audit.Query(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	resp := auditListResponse{Items: make([]auditAttemptResponse, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		resp.Items = append(resp.Items, auditAttemptResponse{
			AttemptID:   rec.Attempt.ID,
			UserID:      rec.Attempt.UserID,
			ChallengeID: rec.Attempt.ChallengeID,
			Accepted:    rec.Attempt.Accepted,
			Reason:      string(rec.Attempt.Reason),
			LatencyMs:   rec.Attempt.TotalLatency.Milliseconds(),
			CreatedAt:   rec.Attempt.CreatedAt,
			Scores: scoresResponse{
				Similarity:       toAdapterScore(rec.Scores.Similarity),
				SpoofProbability: toAdapterScore(rec.Scores.Spoof),
				PhraseMatch:      toAdapterScore(rec.Scores.Phrase),
			},
		})
	}
	return c.JSON(http.StatusOK, resp)
}
