// Package handler implements the helloHandler Lambda function behind the
// workshop API.
//
// API Gateway proxies both routes to the same function; the function
// dispatches with the route table of the API definition, so a route that
// is not in the table never reaches handler logic.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dineshpithiya/cdk-workshop/internal/api"
	"github.com/dineshpithiya/cdk-workshop/internal/routes"
	"github.com/dineshpithiya/cdk-workshop/internal/validator"
)

// InvalidBodyMessage is the message of a 400 response, as API Gateway words it.
const InvalidBodyMessage = "Invalid request body"

// User is the payload of POST /user.
type User struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Greeting is the response of GET /getUser.
type Greeting struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Created is the response of POST /user.
type Created struct {
	ID   string `json:"id"`
	User User   `json:"user"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message    string                `json:"message"`
	Violations []validator.Violation `json:"violations,omitempty"`
}

// Handler serves API Gateway proxy events.
type Handler struct {
	def   *api.Definition
	log   zerolog.Logger
	newID func() string
}

// New creates a handler for def.
func New(def *api.Definition, log zerolog.Logger) *Handler {
	return &Handler{
		def:   def,
		log:   log,
		newID: func() string { return uuid.NewString() },
	}
}

// Handle dispatches one proxy event. Errors are always rendered as responses;
// the returned error is reserved for failures the Lambda runtime should see.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := event.Resource
	if path == "" {
		path = event.Path
	}

	log := h.log.With().
		Str("request_id", event.RequestContext.RequestID).
		Str("method", event.HTTPMethod).
		Str("path", path).
		Logger()

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			log.Info().Err(err).Msg("undecodable body")
			return h.respond(http.StatusBadRequest, ErrorResponse{Message: InvalidBodyMessage})
		}
		body = decoded
	}

	route, result, err := h.def.Check(event.HTTPMethod, path, body)
	if errors.Is(err, routes.ErrNoRoute) {
		log.Debug().Msg("no route")
		return h.respond(http.StatusNotFound, ErrorResponse{Message: "Not found"})
	}
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if !result.Valid {
		log.Info().Strs("fields", result.Fields()).Msg("request rejected")
		return h.respond(http.StatusBadRequest, ErrorResponse{
			Message:    InvalidBodyMessage,
			Violations: result.Violations,
		})
	}

	switch route.Method + " " + route.Path {
	case http.MethodGet + " " + api.GetUserPath:
		return h.respond(http.StatusOK, Greeting{
			Message: "Hello, CDK! You've hit " + path,
			Path:    path,
		})

	case http.MethodPost + " " + api.UserPath:
		var user User
		if err := json.Unmarshal(body, &user); err != nil {
			return h.respond(http.StatusBadRequest, ErrorResponse{Message: InvalidBodyMessage})
		}
		created := Created{ID: h.newID(), User: user}
		log.Info().Str("user_id", created.ID).Msg("user accepted")
		return h.respond(http.StatusCreated, created)
	}

	log.Warn().Msg("route has no implementation")
	return h.respond(http.StatusNotFound, ErrorResponse{Message: "Not found"})
}

func (h *Handler) respond(status int, body any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	headers := map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": strings.Join(h.def.CORS().AllowOrigins, ","),
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(data),
	}, nil
}
