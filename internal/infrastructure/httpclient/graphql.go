package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLError is a single entry of a GraphQL errors array
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLErrors is returned when the server answers with a non-empty errors array
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Unwrap classifies query errors as upstream failures
func (e GraphQLErrors) Unwrap() error {
	return repositories.ErrUpstream
}

// GraphQL posts a query to url and decodes the data member into dest
func (c *Client) GraphQL(ctx context.Context, url, query string, variables map[string]interface{}, dest interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	body, err := c.Post(ctx, url, "application/json", payload)
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", c.service, repositories.ErrUpstream, err)
	}

	if len(resp.Errors) > 0 {
		return GraphQLErrors(resp.Errors)
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%s returned no data: %w", c.service, repositories.ErrUpstream)
	}

	if err := json.Unmarshal(resp.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w: %w", c.service, repositories.ErrUpstream, err)
	}
	return nil
}
