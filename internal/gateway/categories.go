package gateway

import (
	"context"
	"net/http"

	"events-portal/internal/models"
)

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, "list categories", http.MethodGet, c.endpoint("categories"), nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) GetCategory(ctx context.Context, id models.ID) (*models.Category, error) {
	var category models.Category
	if err := c.do(ctx, "get category", http.MethodGet, c.endpoint("categories", id.String()), nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
