package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"minetrack/internal/dashboard"
	"minetrack/internal/domain"
	"minetrack/internal/engine"
	"minetrack/internal/export"
	"minetrack/internal/repo"
)

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
		} `json:"body"`
	}, error) {
		out := &struct {
			Body struct {
				Status string `json:"status"`
			} `json:"body"`
		}{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerSession(api huma.API, e engine.Engine, cfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/session",
		Summary:       "Log in and obtain a bearer token",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if err := cfg.canSign(); err != nil {
			return nil, handleError(err)
		}
		s, err := e.Login(ctx, engine.LoginInput{
			Name:     input.Body.Name,
			Role:     input.Body.Role,
			ZPNumber: input.Body.ZPNumber,
		})
		if err != nil {
			return nil, handleError(err)
		}
		token, exp, err := signToken(cfg, s)
		if err != nil {
			return nil, handleError(err)
		}
		me := meResponse(s)
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: SessionResponse{
			Token:        token,
			ExpiresAt:    exp.UTC(),
			Session:      s,
			Capabilities: me.Capabilities,
			Navigation:   engine.NavigationFor(s.Role),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-session",
		Method:        http.MethodDelete,
		Path:          "/session",
		Summary:       "Log out",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct{}) (*struct{}, error) {
		if _, herr := sessionFromContext(ctx); herr != nil {
			return nil, herr
		}
		if err := e.Logout(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current identity and capabilities",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: meResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "navigation",
		Method:      http.MethodGet,
		Path:        "/navigation",
		Summary:     "Destinations visible to the caller",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body engine.Navigation `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		return &struct {
			Body engine.Navigation `json:"body"`
		}{Body: engine.NavigationFor(s.Role)}, nil
	})
}

func registerEquipment(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-equipment",
		Method:      http.MethodGet,
		Path:        "/equipment",
		Summary:     "List equipment",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body []domain.Equipment `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		items, err := e.ListEquipment(ctx, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Equipment `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-equipment-status",
		Method:      http.MethodPut,
		Path:        "/equipment/{id}/status",
		Summary:     "Set equipment status",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body StatusRequest `json:"body"`
	}) (*struct {
		Body engine.StatusChange `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		change, err := e.SetEquipmentStatus(ctx, s, input.ID, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.StatusChange `json:"body"`
		}{Body: change}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-equipment-active-downtime",
		Method:      http.MethodGet,
		Path:        "/equipment/{id}/active-downtime",
		Summary:     "Newest active downtime of one equipment",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ActiveDowntimeResponse `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		ev, found, err := e.FindActiveForEquipmentID(ctx, s, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActiveDowntimeResponse `json:"body"`
		}{Body: activeDowntimeResponse(ev, found)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "find-active-downtime",
		Method:      http.MethodGet,
		Path:        "/active-downtime",
		Summary:     "Newest active downtime by equipment name",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		EquipmentName string `query:"equipment_name" required:"true" minLength:"1"`
	}) (*struct {
		Body ActiveDowntimeResponse `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		ev, found, err := e.FindActiveForEquipment(ctx, s, input.EquipmentName)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActiveDowntimeResponse `json:"body"`
		}{Body: activeDowntimeResponse(ev, found)}, nil
	})
}

func registerDowntimes(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-downtimes",
		Method:      http.MethodGet,
		Path:        "/downtimes",
		Summary:     "List downtime events, newest first",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"open,in_progress,closed"`
	}) (*struct {
		Body []domain.DowntimeEvent `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		items, err := e.ListDowntimes(ctx, s)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Status != "" {
			filtered := make([]domain.DowntimeEvent, 0, len(items))
			for _, ev := range items {
				if string(ev.Status) == input.Status {
					filtered = append(filtered, ev)
				}
			}
			items = filtered
		}
		return &struct {
			Body []domain.DowntimeEvent `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-active-downtimes",
		Method:      http.MethodGet,
		Path:        "/downtimes/active",
		Summary:     "List open and in-progress downtimes",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body []domain.DowntimeEvent `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		items, err := e.ListActive(ctx, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.DowntimeEvent `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "report-downtime",
		Method:        http.MethodPost,
		Path:          "/downtimes",
		Summary:       "Report a breakdown",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body ReportRequest `json:"body"`
	}) (*struct {
		Body engine.ReportResult `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		res, err := e.ReportBreakdown(ctx, s, engine.ReportInput{
			EquipmentName: input.Body.EquipmentName,
			EquipmentType: input.Body.EquipmentType,
			Section:       input.Body.Section,
			Description:   input.Body.Description,
			Cause:         input.Body.Cause,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ReportResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-repair",
		Method:      http.MethodPost,
		Path:        "/downtimes/{id}/start-repair",
		Summary:     "Start repair on an open downtime",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.DowntimeEvent `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		ev, err := e.StartRepair(ctx, s, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DowntimeEvent `json:"body"`
		}{Body: ev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-downtime",
		Method:      http.MethodPost,
		Path:        "/downtimes/{id}/close",
		Summary:     "Close an in-progress downtime",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string       `path:"id"`
		Body CloseRequest `json:"body"`
	}) (*struct {
		Body engine.CloseResult `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		res, err := e.CloseDowntime(ctx, s, engine.CloseInput{
			ID:          input.ID,
			RootCause:   input.Body.RootCause,
			RepairNotes: input.Body.RepairNotes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.CloseResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-downtimes",
		Method:      http.MethodGet,
		Path:        "/downtimes/export",
		Summary:     "Export the downtime ledger as csv or xlsx",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Format string `query:"format" enum:"csv,xlsx" default:"csv"`
	}) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		format, err := export.ParseFormat(input.Format)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"format": input.Format})
		}
		var buf bytes.Buffer
		if err := e.ExportDowntimes(ctx, s, &buf, format); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{
			ContentType:        format.ContentType(),
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", format.Filename()),
			Body:               buf.Bytes(),
		}, nil
	})
}

func registerInsights(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Fleet and downtime metrics",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body dashboard.Metrics `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		m, err := e.Dashboard(ctx, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body dashboard.Metrics `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "drift",
		Method:      http.MethodGet,
		Path:        "/drift",
		Summary:     "Equipment whose status disagrees with the ledger",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body []engine.DriftEntry `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		items, err := e.Drift(ctx, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.DriftEntry `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent audit events",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"session,downtime,equipment"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		s, herr := sessionFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		limit := normalizeLimit(input.Limit)
		var before int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || parsed <= 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			before = parsed
		}
		items, err := e.AuditLog(ctx, s, limit+1, repo.EventFilter{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Before:     before,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func activeDowntimeResponse(ev domain.DowntimeEvent, found bool) ActiveDowntimeResponse {
	if !found {
		return ActiveDowntimeResponse{}
	}
	return ActiveDowntimeResponse{Found: true, Downtime: &ev}
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}
