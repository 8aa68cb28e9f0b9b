package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/execution"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

func (s *Server) listEntityTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"entity_types": models.AllEntityTypes(),
	})
}

func parseEntityType(c echo.Context) (models.EntityType, error) {
	entityType := models.EntityType(c.Param("type"))
	if !entityType.Valid() {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unsupported entity type: "+c.Param("type"))
	}
	return entityType, nil
}

func (s *Server) listFields(c echo.Context) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}
	fields, err := s.registry.ListFields(entityType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"fields": fields})
}

// collectionDTO is the serializable shape of a collection descriptor.
type collectionDTO struct {
	Key           string                      `json:"key"`
	Label         string                      `json:"label"`
	Description   string                      `json:"description,omitempty"`
	DefaultLimit  int                         `json:"default_limit"`
	DefaultFormat models.CollectionFormat     `json:"default_format"`
	SupportsBulk  bool                        `json:"supports_bulk"`
	Fields        []registry.FieldDescriptor  `json:"fields"`
	Filters       []registry.FilterDescriptor `json:"filters,omitempty"`
}

func (s *Server) listCollections(c echo.Context) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}
	collections, err := s.registry.ListCollections(entityType)
	if err != nil {
		return httpError(err)
	}

	dtos := make([]collectionDTO, 0, len(collections))
	for _, coll := range collections {
		dtos = append(dtos, collectionDTO{
			Key:           coll.Key,
			Label:         coll.Label,
			Description:   coll.Description,
			DefaultLimit:  coll.DefaultLimit,
			DefaultFormat: coll.DefaultFormat,
			SupportsBulk:  coll.ResolveBulk != nil,
			Fields:        coll.Fields,
			Filters:       coll.Filters,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"collections": dtos})
}

func (s *Server) listCollectionFields(c echo.Context) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}
	fields, err := s.registry.ListCollectionFields(entityType, c.Param("key"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"fields": fields})
}

func (s *Server) listActions(c echo.Context) error {
	entityType := models.EntityType(c.QueryParam("entity_type"))
	if entityType != "" && !entityType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported entity type: "+string(entityType))
	}
	activeOnly := c.QueryParam("active") == "true"

	actions, err := s.actions.List(c.Request().Context(), entityType, activeOnly)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"actions": actions})
}

func (s *Server) getAction(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	action, err := s.actions.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, action)
}

// actionRequest is the create/update payload.
type actionRequest struct {
	Name           string                 `json:"name"`
	PromptTemplate string                 `json:"prompt_template"`
	EntityType     models.EntityType      `json:"entity_type"`
	ModelID        string                 `json:"model_id"`
	OperationType  models.OperationType   `json:"operation_type"`
	FieldKeys      []string               `json:"field_keys"`
	CollectionUses []models.CollectionUse `json:"collection_uses"`
	FieldMappings  []models.FieldMapping  `json:"field_mappings"`
	IsActive       *bool                  `json:"is_active"`
}

func (r *actionRequest) validate(reg *registry.Registry) error {
	if r.Name == "" {
		return models.NewValidationError("name is required")
	}
	if r.PromptTemplate == "" {
		return models.NewValidationError("prompt_template is required")
	}
	if !r.EntityType.Valid() {
		return models.NewValidationError("unsupported entity type: %s", r.EntityType)
	}
	switch r.OperationType {
	case models.OperationReadOnly, models.OperationUpdate, models.OperationCreate:
	default:
		return models.NewValidationError("unsupported operation type: %s", r.OperationType)
	}
	if len(r.FieldKeys) > 0 {
		if err := reg.EnsureFieldKeysSupported(r.EntityType, r.FieldKeys); err != nil {
			return err
		}
	}
	for _, use := range r.CollectionUses {
		if err := reg.EnsureCollectionSupported(r.EntityType, use.Key); err != nil {
			return err
		}
	}
	return nil
}

func (r *actionRequest) toAction() *models.Action {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.Action{
		Name:           r.Name,
		PromptTemplate: r.PromptTemplate,
		EntityType:     r.EntityType,
		ModelID:        r.ModelID,
		OperationType:  r.OperationType,
		FieldKeys:      r.FieldKeys,
		CollectionUses: r.CollectionUses,
		FieldMappings:  r.FieldMappings,
		IsActive:       active,
	}
}

func (s *Server) createAction(c echo.Context) error {
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(s.registry); err != nil {
		return httpError(err)
	}

	action := req.toAction()
	if err := s.actions.Create(c.Request().Context(), action); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, action)
}

func (s *Server) updateAction(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(s.registry); err != nil {
		return httpError(err)
	}

	action := req.toAction()
	action.ID = id
	if err := s.actions.Update(c.Request().Context(), action); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, action)
}

func (s *Server) deleteAction(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.actions.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// executeRequest is the run payload. EntityID empty means bulk mode.
type executeRequest struct {
	EntityID          string  `json:"entity_id"`
	ExtraInstructions string  `json:"extra_instructions"`
	ModelID           string  `json:"model_id"`
	Temperature       float64 `json:"temperature"`
	TriggeredByID     int64   `json:"triggered_by_id"`
}

func (s *Server) executeAction(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	exec, err := s.service.Execute(c.Request().Context(), execution.ExecuteRequest{
		ActionID:          id,
		EntityID:          req.EntityID,
		ExtraInstructions: req.ExtraInstructions,
		ModelOverride:     req.ModelID,
		Temperature:       req.Temperature,
		TriggeredByID:     req.TriggeredByID,
	})
	if err != nil {
		// A failed model call still produced a FAILED execution row;
		// return it alongside the error status.
		if exec != nil && models.IsModelInvocation(err) {
			return c.JSON(http.StatusBadGateway, exec)
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, exec)
}

func (s *Server) executeActionBulk(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if s.queue == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "background jobs are disabled")
	}
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := s.queue.QueueBulkAction(c.Request().Context(), id, req.TriggeredByID, req.ExtraInstructions); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"action_id": id,
		"queued":    true,
	})
}

func (s *Server) listExecutions(c echo.Context) error {
	entityType := models.EntityType(c.QueryParam("entity_type"))
	entityID := c.QueryParam("entity_id")
	if !entityType.Valid() || entityID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_type and entity_id are required")
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	execs, err := s.executions.ListByEntity(c.Request().Context(), entityType, entityID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"executions": execs})
}

func (s *Server) getExecution(c echo.Context) error {
	exec, err := s.executions.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, exec)
}

func (s *Server) applyExecution(c echo.Context) error {
	exec, err := s.service.ApplyChanges(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, exec)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
