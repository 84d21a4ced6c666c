package gateway

import (
	"context"
	"net/http"

	"events-portal/internal/models"
)

func (c *Client) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "get user", http.MethodGet, c.endpoint("users", id.String()), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
