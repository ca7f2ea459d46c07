package handler

// tokenRequest is the OAuth2 password-flow form.
type tokenRequest struct {
	Username string `form:"username" json:"username" validate:"required,max=64"`
	Password string `form:"password" json:"password" validate:"required,max=64"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createAccountRequest struct {
	Role     string `json:"role"     form:"role"     query:"role"`
	Login    string `json:"login"    form:"login"    query:"login"`
	Password string `json:"password" form:"password" query:"password"`
}

type deleteAccountRequest struct {
	Login string `query:"login" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" query:"old_password" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" query:"new_password"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type accountSummary struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Login string `json:"login"`
}

type accountListResponse struct {
	Status string           `json:"status"`
	Data   []accountSummary `json:"data"`
}

type accountProfile struct {
	Role  string `json:"role"`
	Login string `json:"login"`
}

type accountResponse struct {
	Status string         `json:"status"`
	Data   accountProfile `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}
