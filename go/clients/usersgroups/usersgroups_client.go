package usersgroups

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/progression/go/clients"
)

// Client queries the users and groups context.
type Client struct {
	*clients.BaseClient
}

func NewClient(baseURL, systemUserID string) *Client {
	c := &Client{BaseClient: clients.NewBaseClient(baseURL)}
	c.SetHeader(UserIDHeader, systemUserID)
	return c
}

func NewClientWithHTTP(baseURL, systemUserID string, hc *http.Client) *Client {
	c := &Client{BaseClient: clients.NewBaseClientWithHTTP(baseURL, hc)}
	c.SetHeader(UserIDHeader, systemUserID)
	return c
}

func (c *Client) User(ctx context.Context, userID string) (json.RawMessage, error) {
	body, err := c.Get(ctx, UsersEndpoint+"/"+url.PathEscape(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return body, nil
}

func (c *Client) GroupsForUser(ctx context.Context, userID string) (json.RawMessage, error) {
	body, err := c.Get(ctx, UsersEndpoint+"/"+url.PathEscape(userID)+GroupsSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups for user %s: %w", userID, err)
	}
	return body, nil
}
