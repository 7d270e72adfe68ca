package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	foremapper "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/http/mapper"
	foreapp "github.com/fincast/balance-forecast/internal/domains/forecast/application"
	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	foreports "github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	apierrors "github.com/fincast/balance-forecast/internal/shared/errors"
)

// ForecastAPI wires HTTP transport with the forecast bounded context service
// and workflows.
type ForecastAPI struct {
	service   foreports.Service
	workflows foreports.WorkflowOrchestrator
	problems  *apierrors.ChainedResponder
}

// NewForecastAPI creates a ForecastAPI backed by the provided service.
func NewForecastAPI(service foreports.Service, workflows foreports.WorkflowOrchestrator) ForecastAPI {
	return ForecastAPI{
		service:   service,
		workflows: workflows,
		problems:  apierrors.NewChainedResponder("", mapForecastError),
	}
}

// Post /v1/rules
// Add a recurring rule
func (api *ForecastAPI) CreateRule(c *gin.Context) {
	var payload foremapper.RuleMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	input, err := foremapper.ToMutationInput(payload)
	if err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	saved, err := api.service.CreateRule(c.Request.Context(), foretypes.CreateRuleInput{RuleMutationInput: input})
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, foremapper.FromStoredRule(saved))
}

// Get /v1/rules
// List all recurring rules
func (api *ForecastAPI) ListRules(c *gin.Context) {
	rules, err := api.service.ListRules(c.Request.Context())
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromStoredRuleList(rules))
}

// Get /v1/rules/:ruleId
// Find a rule by ID
func (api *ForecastAPI) GetRule(c *gin.Context) {
	id, ok := api.parseIDParam(c, "ruleId")
	if !ok {
		return
	}
	rule, err := api.service.GetRule(c.Request.Context(), foretypes.RuleIdentifier{ID: id})
	if err != nil {
		if errors.Is(err, foreports.ErrRuleNotFound) {
			api.problems.NotFound(c, "rule", id)
			return
		}
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromStoredRule(rule))
}

// Put /v1/rules/:ruleId
// Update an existing rule
func (api *ForecastAPI) UpdateRule(c *gin.Context) {
	id, ok := api.parseIDParam(c, "ruleId")
	if !ok {
		return
	}
	var payload foremapper.RuleMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	input, err := foremapper.ToMutationInput(payload)
	if err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	input.ID = id
	updated, err := api.service.UpdateRule(c.Request.Context(), foretypes.UpdateRuleInput{RuleMutationInput: input})
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromStoredRule(updated))
}

// Delete /v1/rules/:ruleId
// Delete a rule
func (api *ForecastAPI) DeleteRule(c *gin.Context) {
	id, ok := api.parseIDParam(c, "ruleId")
	if !ok {
		return
	}
	if err := api.service.DeleteRule(c.Request.Context(), foretypes.RuleIdentifier{ID: id}); err != nil {
		if errors.Is(err, foreports.ErrRuleNotFound) {
			api.problems.NotFound(c, "rule", id)
			return
		}
		api.problems.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/settings
// Read the projection settings
func (api *ForecastAPI) GetSettings(c *gin.Context) {
	settings, err := api.service.GetSettings(c.Request.Context())
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromSettings(settings))
}

// Put /v1/settings
// Replace the projection settings
func (api *ForecastAPI) UpdateSettings(c *gin.Context) {
	var payload foremapper.Settings
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	updated, err := api.service.UpdateSettings(c.Request.Context(), foremapper.ToSettings(payload))
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromSettings(updated))
}

// Post /v1/projection/run
// Recompute and store the balance series
func (api *ForecastAPI) RunProjection(c *gin.Context) {
	var payload foremapper.RunProjectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			api.problems.BadRequest(c, err.Error())
			return
		}
	}
	input, err := foremapper.ToRunProjectionInput(payload)
	if err != nil {
		api.problems.BadRequest(c, err.Error())
		return
	}
	result, err := api.runProjection(c.Request.Context(), input)
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foremapper.FromRunResult(result))
}

func (api *ForecastAPI) runProjection(ctx context.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	if api.workflows != nil {
		return api.workflows.RefreshProjection(ctx, input)
	}
	return api.service.RunProjection(ctx, input)
}

// Get /v1/projection
// Read the most recently stored series
func (api *ForecastAPI) GetProjection(c *gin.Context) {
	stored, err := api.service.LatestProjection(c.Request.Context())
	if err != nil {
		api.problems.RespondError(c, err)
		return
	}
	if stored == nil {
		api.problems.Respond(c, apierrors.ErrNotFound.WithDetail("no projection has been computed yet"))
		return
	}
	c.JSON(http.StatusOK, foremapper.FromStoredProjection(stored))
}

func (api *ForecastAPI) parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		api.problems.BadRequest(c, name+" must be an integer")
		return 0, false
	}
	return id, true
}

// mapForecastError translates application and port errors into problem details.
func mapForecastError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, foreports.ErrRuleNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, foreports.ErrSettingsNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, foreapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, foreapp.ErrConfiguration):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
