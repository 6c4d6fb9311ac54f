package handlers

import (
	"context"

	"sorrymonster/pkg/models"
)

// Generator is the engine surface the HTTP handlers depend on.
type Generator interface {
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error)
	Interpret(ctx context.Context, req *models.InterpretRequest) (*models.InterpretResponse, error)
	Lucky(ctx context.Context, req *models.LuckyRequest) (*models.LuckyResponse, error)
}
