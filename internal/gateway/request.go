package gateway

import (
	"errors"
	"net/http"
)

// parseOperationRequest reads a single GraphQL operation from either a GET
// request's query string or a POST request's JSON body.
func parseOperationRequest(r *http.Request) (operationRequest, error) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		query := q.Get("query")
		if query == "" {
			return operationRequest{}, errors.New("missing query parameter")
		}
		req := operationRequest{Query: query, OperationName: q.Get("operationName")}
		if raw := q.Get("variables"); raw != "" {
			if err := jsonCodec.UnmarshalFromString(raw, &req.Variables); err != nil {
				return operationRequest{}, errors.New("invalid variables parameter")
			}
		}
		return req, nil

	case http.MethodPost:
		var req operationRequest
		if err := jsonCodec.NewDecoder(r.Body).Decode(&req); err != nil {
			return operationRequest{}, errors.New("invalid request body")
		}
		if req.Query == "" {
			return operationRequest{}, errors.New("missing query")
		}
		return req, nil

	default:
		return operationRequest{}, errors.New("method not allowed")
	}
}
