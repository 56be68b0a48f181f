package referencedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/progression/go/clients"
)

// Client queries the reference data context.
type Client struct {
	*clients.BaseClient
}

func NewClient(baseURL, systemUserID string) *Client {
	c := &Client{BaseClient: clients.NewBaseClient(baseURL)}
	c.SetHeader(UserIDHeader, systemUserID)
	return c
}

// NewClientWithHTTP is NewClient with a custom http.Client.
func NewClientWithHTTP(baseURL, systemUserID string, hc *http.Client) *Client {
	c := &Client{BaseClient: clients.NewBaseClientWithHTTP(baseURL, hc)}
	c.SetHeader(UserIDHeader, systemUserID)
	return c
}

func (c *Client) ReferralReason(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.Get(ctx, ReferralReasonsEndpoint+"/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get referral reason %s: %w", id, err)
	}
	return body, nil
}

func (c *Client) OrganisationUnit(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.Get(ctx, OrganisationUnitsEndpoint+"/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get organisation unit %s: %w", id, err)
	}
	return body, nil
}

type documentTypesResponse struct {
	DocumentsTypeAccess []json.RawMessage `json:"documentsTypeAccess"`
}

// DocumentType looks up the document type for a template identifier. The
// query API answers with a list; an empty list is reported as a 404.
func (c *Client) DocumentType(ctx context.Context, templateIdentifier string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s?templateIdentifier=%s", DocumentTypesEndpoint, url.QueryEscape(templateIdentifier))
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get document type %s: %w", templateIdentifier, err)
	}

	var response documentTypesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if len(response.DocumentsTypeAccess) == 0 {
		return nil, &clients.StatusError{StatusCode: http.StatusNotFound, Body: "no document type for " + templateIdentifier}
	}
	return response.DocumentsTypeAccess[0], nil
}
