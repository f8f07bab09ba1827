package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/pipeline"
	xhttp "FlareCast/pkg/http"
	xlogger "FlareCast/pkg/logger"
)

type predictResponse struct {
	ID           string                `json:"id"`
	Prediction   float64               `json:"prediction"`
	Confidence   models.ConfidenceBand `json:"confidence"`
	FlareClass   models.FlareClass     `json:"flare_class"`
	IsAnomaly    bool                  `json:"is_anomaly"`
	AnomalyScore *float64              `json:"anomaly_score,omitempty"`
	Provenance   models.Provenance     `json:"provenance"`
	Reason       string                `json:"reason,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
	ModelUsed    string                `json:"model_used"`
	Status       string                `json:"status"`
}

func (h *FlareHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictions.Predict(c.Request().Context(), req.Features)
	if err != nil {
		var mismatch *pipeline.FeatureCountMismatchError
		if errors.As(err, &mismatch) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_FEATURE_COUNT", "features", mismatch.Error(), http.StatusBadRequest).
				WithParam("expected", mismatch.Expected).
				WithParam("actual", mismatch.Actual).
				WithParam("expected_names", mismatch.ExpectedNames))
		}
		h.log.Error("predict failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, predictResponse{
		ID:           res.ID,
		Prediction:   res.Probability,
		Confidence:   res.Confidence,
		FlareClass:   res.FlareClass,
		IsAnomaly:    res.IsAnomaly,
		AnomalyScore: res.AnomalyScore,
		Provenance:   res.Provenance,
		Reason:       res.Reason,
		Timestamp:    res.Timestamp,
		ModelUsed:    res.ModelUsed,
		Status:       "prediction_success",
	})
}

func (h *FlareHandler) RecentPredictions(c echo.Context) error {
	req := &models.RecentPredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.predictions.Recent(c.Request().Context(), req.Limit)
	if err != nil {
		h.log.Error("recent predictions", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("prediction history unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, len(rows))
}
