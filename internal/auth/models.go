package auth

// User is an account profile as the identity service reports it. Every field
// is optional on the wire.
type User struct {
	ID                 *int64  `json:"id,omitempty"`
	UserName           *string `json:"userName,omitempty"`
	Password           *string `json:"password,omitempty"`
	Photo              *string `json:"photo,omitempty"`
	Role               *string `json:"role,omitempty"`
	Mobile             *string `json:"mobile,omitempty"`
	Email              *string `json:"email,omitempty"`
	ServiceLevel       *int    `json:"serviceLevel,omitempty"`
	TokenDurationInMin *int    `json:"tokenDurationInMin,omitempty"`
	IsActive           *bool   `json:"isActive,omitempty"`
	CreatedDateTime    *string `json:"createdDateTime,omitempty"`
	UpdatedDateTime    *string `json:"updatedDateTime,omitempty"`
	CreatedBy          *string `json:"createdBy,omitempty"`
	UpdatedBy          *string `json:"updatedBy,omitempty"`
}

func (u User) Name() string {
	if u.UserName == nil {
		return ""
	}
	return *u.UserName
}

func (u User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return *u.Role
}

type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type emailInput struct {
	Email string `validate:"notblank,mailbox"`
}

type verifyInput struct {
	Email string `validate:"notblank,mailbox"`
	Code  string `validate:"notblank"`
}

type passwordInput struct {
	Password        string `validate:"notblank"`
	ConfirmPassword string `validate:"notblank,eqfield=Password"`
}

type createUserBody struct {
	Username string `json:"username"`
}

type verifyBody struct {
	AuthenticationCode string `json:"authenticationCode"`
}

type passwordBody struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ActivateUser bool   `json:"activateUser"`
}
