package api

import (
	"net/http"

	"github.com/dineshpithiya/cdk-workshop/internal/routes"
	"github.com/dineshpithiya/cdk-workshop/internal/validator"
)

// Names used by the workshop API.
const (
	Name                 = "getUser"
	Description          = "example api gateway"
	StageName            = "dev"
	HelloHandler         = "HelloHandler"
	UserModel            = "getUsermodelcdk"
	RequestValidatorName = "body-validator"

	GetUserPath = "/getUser"
	UserPath    = "/user"
)

// UserSchema is the request model of POST /user.
//
// The username and phone patterns only anchor the first character.
func UserSchema() *validator.ValidationSchema {
	return &validator.ValidationSchema{
		Name:        UserModel,
		Title:       "pollRequest",
		ContentType: "application/json",
		Description: "To validate the request body",
		Required:    []string{"username", "phone", "email"},
		Fields: []validator.Field{
			{Name: "username", Pattern: "^[a-zA-Z]"},
			{Name: "phone", Pattern: "^[0-9]"},
			{Name: "email", Pattern: "^(.+)@(.+)$"},
		},
	}
}

// WorkshopConfig returns the configuration of the workshop API.
func WorkshopConfig() Config {
	return Config{
		Name:                 Name,
		Description:          Description,
		StageName:            StageName,
		RequestValidatorName: RequestValidatorName,
		Routes: routes.Table{
			{Method: http.MethodGet, Path: GetUserPath, Handler: HelloHandler},
			{Method: http.MethodPost, Path: UserPath, Handler: HelloHandler, Validator: UserModel},
		},
		Schemas: []*validator.ValidationSchema{UserSchema()},
		CORS: routes.CORSOptions{
			AllowOrigins: routes.AllOrigins,
			AllowHeaders: routes.DefaultAllowHeaders,
			AllowMethods: []string{http.MethodGet},
		},
		Handlers: []string{HelloHandler},
	}
}

// Workshop returns the workshop API definition. It panics if the built-in
// configuration is invalid, which the package tests rule out.
func Workshop() *Definition {
	d, err := New(WorkshopConfig())
	if err != nil {
		panic(err)
	}
	return d
}
