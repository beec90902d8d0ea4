package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) dashboard(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	workouts, err := h.engine.Workouts(ctx, uid)
	if err != nil {
		return nil, err
	}
	active, err := h.engine.ActiveSession(ctx, uid)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]any{
		"workouts":       workouts,
		"active_session": active,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) chartExercises(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	exercises, err := h.engine.ChartExercises(ctx, uid)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(exercises)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
