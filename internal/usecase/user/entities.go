package user

type RegisterInput struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type RegisterDTO struct {
	ID string `json:"id"`
}
