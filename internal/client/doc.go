// Package client is a Go client for the Digital Twin REST API.
//
// A Client keeps one login in a CredentialStore and adds it as a bearer
// token to every request. When the server answers 401 the stored login is
// cleared, the OnLogout hook runs and ErrUnauthorized is returned.
//
// Example Usage:
//
//	store, _ := client.NewFileStore(filepath.Join(home, ".config", "twinctl", "credentials.toml"))
//	c := client.New(client.Config{BaseURL: "http://localhost:8000", Store: store})
//	if _, err := c.Login(ctx, "admin", "admin123"); err != nil {
//		return err
//	}
//	var me types.User
//	err := c.Get(ctx, "/users/me", &me)
package client
