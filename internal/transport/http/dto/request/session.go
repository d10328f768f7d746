package request

// SignInRequest токен идентичности, выданный внешним провайдером
type SignInRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}
