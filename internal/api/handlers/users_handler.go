package handlers

import "github.com/inventory-system/api/internal/api/pipeline"

// User is the public shape of a user.
type User struct {
	ID   int    `json:"id" example:"1"`
	Name string `json:"name" example:"Jon Doe"`
}

type UsersHandler struct {
	users []User
}

func NewUsersHandler() *UsersHandler {
	return &UsersHandler{users: []User{{ID: 1, Name: "Jon Doe"}}}
}

// List godoc
// @Summary      Get a list of users
// @Tags         auth
// @Produce      json
// @Success      200  {object}  UsersResponse  "The found records"
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/auth [get]
func (h *UsersHandler) List(c *pipeline.Context) (any, error) {
	return h.users, nil
}
