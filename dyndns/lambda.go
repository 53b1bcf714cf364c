package dyndns

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// HandleLambda serves Lambda function URL and API Gateway HTTP API events.
func (h *Handler) HandleLambda(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	params := request.QueryStringParameters
	if params == nil {
		params = map[string]string{}
	}

	response := h.Handle(ctx, params)

	body, err := json.Marshal(response)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: response.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
