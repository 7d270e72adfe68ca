package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foremapper "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/http/mapper"
	forecastmemory "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/memory"
	foreapp "github.com/fincast/balance-forecast/internal/domains/forecast/application"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	apierrors "github.com/fincast/balance-forecast/internal/shared/errors"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	settings := forecastmemory.NewSeededSettingsStore(ports.Settings{
		HorizonDays:    30,
		CurrentBalance: decimal.NewFromInt(1000),
	})
	service := foreapp.NewService(
		forecastmemory.NewRuleRepository(),
		settings,
		forecastmemory.NewHolidaySource(),
		forecastmemory.NewProjectionStore(),
		foreapp.WithClock(func() time.Time {
			return time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
		}),
	)
	return NewRouter(NewForecastAPI(service, nil))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createTestRule(t *testing.T, router *gin.Engine, name string, amount int64, frequency, start string) foremapper.Rule {
	t.Helper()
	amt := decimal.NewFromInt(amount)
	resp := doJSON(t, router, http.MethodPost, "/v1/rules", foremapper.RuleMutation{
		Name:      &name,
		Amount:    &amt,
		Frequency: &frequency,
		StartDate: &start,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var rule foremapper.Rule
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rule))
	return rule
}

func TestCreateRule_ReturnsCreated(t *testing.T) {
	router := newTestRouter(t)

	rule := createTestRule(t, router, "rent", -1200, "monthly", "2024-01-31")
	assert.NotZero(t, rule.ID)
	assert.Equal(t, "rent", rule.Name)
	assert.Equal(t, "monthly", rule.Frequency)
	assert.Equal(t, "forward", rule.Direction)
	assert.Equal(t, "2024-01-31", rule.StartDate)
}

func TestCreateRule_UnknownFrequencyIsValidationProblem(t *testing.T) {
	router := newTestRouter(t)

	name := "gym"
	frequency := "fortnightly"
	start := "2024-01-01"
	amt := decimal.NewFromInt(-40)
	resp := doJSON(t, router, http.MethodPost, "/v1/rules", foremapper.RuleMutation{
		Name:      &name,
		Amount:    &amt,
		Frequency: &frequency,
		StartDate: &start,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), apierrors.ContentTypeProblemJSON)

	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Equal(t, "/v1/rules", problem.Instance)
}

func TestCreateRule_MalformedDateIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	name := "rent"
	frequency := "monthly"
	start := "31/01/2024"
	resp := doJSON(t, router, http.MethodPost, "/v1/rules", foremapper.RuleMutation{
		Name:      &name,
		Frequency: &frequency,
		StartDate: &start,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeBadRequest, problem.Type)
}

func TestRuleLifecycle(t *testing.T) {
	router := newTestRouter(t)
	created := createTestRule(t, router, "gym", -40, "weekly", "2024-01-03")

	resp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/rules/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	newName := "gym membership"
	resp = doJSON(t, router, http.MethodPut, fmt.Sprintf("/v1/rules/%d", created.ID), foremapper.RuleMutation{Name: &newName})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated foremapper.Rule
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "gym membership", updated.Name)
	assert.Equal(t, "weekly", updated.Frequency, "untouched fields survive partial updates")

	resp = doJSON(t, router, http.MethodGet, "/v1/rules", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []foremapper.Rule
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	resp = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/rules/%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/rules/%d", created.ID), nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteRule_MissingIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodDelete, "/v1/rules/404", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeNotFound, problem.Type)
}

func TestGetRule_NonIntegerIDIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/v1/rules/abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var settings foremapper.Settings
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, 30, settings.HorizonDays)

	settings.HorizonDays = 60
	resp = doJSON(t, router, http.MethodPut, "/v1/settings", settings)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, 60, settings.HorizonDays)
}

func TestUpdateSettings_InvalidHorizonIsUnprocessable(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPut, "/v1/settings", foremapper.Settings{
		HorizonDays:    0,
		CurrentBalance: decimal.NewFromInt(100),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeUnprocessable, problem.Type)
}

func TestProjectionRunAndFetch(t *testing.T) {
	router := newTestRouter(t)
	createTestRule(t, router, "paycheck", 2000, "weekly", "2024-01-05")

	// Nothing stored before the first run.
	resp := doJSON(t, router, http.MethodGet, "/v1/projection", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/v1/projection/run", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var result foremapper.RunResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Projection.RunID)
	assert.Equal(t, "2024-01-02", result.Projection.AnchorDate)
	require.Len(t, result.Projection.Days, 30, "anchor day counts as the first horizon day")
	assert.Equal(t, 0, result.Summary.SkippedRules)

	resp = doJSON(t, router, http.MethodGet, "/v1/projection", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stored foremapper.Projection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stored))
	assert.Equal(t, result.Projection.RunID, stored.RunID)
	require.Len(t, stored.Days, 30)
}

func TestProjectionRun_ExplicitAnchorAndHorizon(t *testing.T) {
	router := newTestRouter(t)
	createTestRule(t, router, "paycheck", 2000, "weekly", "2024-01-05")

	anchor := "2024-01-08"
	horizon := 5
	resp := doJSON(t, router, http.MethodPost, "/v1/projection/run", foremapper.RunProjectionRequest{
		AnchorDate:  &anchor,
		HorizonDays: &horizon,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var result foremapper.RunResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, anchor, result.Projection.AnchorDate)
	require.Len(t, result.Projection.Days, 5)
}
