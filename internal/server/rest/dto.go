package rest

import "github.com/dmitrijs2005/storefront/internal/server/models"

// userDTO is the public view of a user. The password hash never leaves
// the server.
type userDTO struct {
	ID             string            `json:"_id"`
	Name           string            `json:"name"`
	Lastname       string            `json:"lastname"`
	Email          string            `json:"email"`
	Age            int               `json:"age"`
	Cart           string            `json:"cart"`
	Role           models.Role       `json:"role"`
	Documents      []models.Document `json:"documents"`
	LastConnection int64             `json:"last_connection"`
}

func toUserDTO(u *models.User) userDTO {
	docs := u.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	return userDTO{
		ID:             u.ID,
		Name:           u.Name,
		Lastname:       u.Lastname,
		Email:          u.Email,
		Age:            u.Age,
		Cart:           u.Cart,
		Role:           u.Role,
		Documents:      docs,
		LastConnection: u.LastConnection,
	}
}

func toUserDTOs(us []models.User) []userDTO {
	out := make([]userDTO, 0, len(us))
	for i := range us {
		out = append(out, toUserDTO(&us[i]))
	}
	return out
}
