/*
Package apisdk holds the request and response schemas of the user API and a
typed Go client for it.

# Schemas

Every request body the server accepts is declared here with
go-playground/validator tags, and the server validates incoming payloads with
the same Validate function clients can call before sending:

	req := apisdk.UserCreate{Email: "a@example.com", Username: "alice", Password: "s3cretpass"}
	if err := apisdk.Validate(req); err != nil {
		// err is a *apisdk.ValidationError listing each failing field
	}

# Client and Session

Client covers the unauthenticated endpoints and logs in:

	client := apisdk.NewClient("http://localhost:8000")

	health, err := client.Health(ctx)
	user, err := client.Register(ctx, req)
	session, err := client.Login(ctx, "alice", "s3cretpass")

Session covers the authenticated endpoints. It refreshes the access token
shortly before it expires, rotating the refresh token as it goes:

	me, err := session.Me(ctx)
	page, err := session.ListUsers(ctx, apisdk.ListOptions{Page: 2, PerPage: 50})
	err = session.Revoke(ctx)

# Errors

Any non-2xx response is returned as *APIError carrying the status code and
the server's detail and error_code:

	var apiErr *apisdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		// duplicate email or username
	}
*/
package apisdk
