package api

import (
	"context"
	"net/http"
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" validate:"required"`
}

// Login stores the session cookie on success. Bad credentials come back
// as a RejectedError carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authPost(ctx, "login", "/login", Credentials{Email: email, Password: password})
}

func (c *Client) Signup(ctx context.Context, cred Credentials) error {
	return c.authPost(ctx, "signup", "/signup", cred)
}

func (c *Client) authPost(ctx context.Context, op, path string, body Credentials) error {
	req, id := c.request(ctx)
	req.SetBody(body)
	r, err := c.exchange(op, req, id, http.MethodPost, path, true)
	if err != nil {
		return err
	}
	var env envelope
	if err := decode(op, r, &env); err != nil {
		return err
	}
	return requireSuccess(op, r, env)
}

// Logout ends the server session and always drops the local cookie jar,
// whatever the server answered.
func (c *Client) Logout(ctx context.Context) error {
	req, id := c.request(ctx)
	_, err := c.exchange("logout", req, id, http.MethodPost, "/logout", true)
	c.http.SetCookieJar(newJar())
	return err
}

// Ping checks that the server answers at all.
func (c *Client) Ping(ctx context.Context) (*NetworkMetrics, error) {
	req, id := c.request(ctx)
	r, err := c.exchange("ping", req, id, http.MethodGet, "/login", true)
	if err != nil {
		return nil, err
	}
	return r.metrics, nil
}
