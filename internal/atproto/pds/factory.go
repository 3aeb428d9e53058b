package pds

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bluesky-social/indigo/atproto/atclient"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// NewFromPasswordAuth creates a PDS client using an account handle and
// (app) password. The session is created once via com.atproto.server.createSession.
func NewFromPasswordAuth(ctx context.Context, host, handle, password string) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	apiClient, err := atclient.LoginWithPasswordHost(ctx, host, handle, password, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to login with password: %w", err)
	}

	did := ""
	if apiClient.AccountDID != nil {
		did = apiClient.AccountDID.String()
	}

	return &client{
		apiClient: apiClient,
		did:       did,
		host:      host,
	}, nil
}

// NewFromAccessToken creates a PDS client from an existing Bearer access token.
//
// WARNING: Bearer auth only. OAuth access tokens need DPoP proofs and will be rejected.
func NewFromAccessToken(host, did, accessToken string) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if did == "" {
		return nil, fmt.Errorf("did is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("accessToken is required")
	}

	apiClient := atclient.NewAPIClient(host)
	apiClient.Auth = &bearerAuth{token: accessToken}

	return &client{
		apiClient: apiClient,
		did:       did,
		host:      host,
	}, nil
}

// bearerAuth implements atclient.AuthMethod for simple Bearer token auth.
type bearerAuth struct {
	token string
}

var _ atclient.AuthMethod = (*bearerAuth)(nil)

func (b *bearerAuth) DoWithAuth(c *http.Client, req *http.Request, _ syntax.NSID) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return c.Do(req)
}

// Credentials selects how a service account session is established.
// A DID with an access token wins over a handle with a password.
type Credentials struct {
	Host        string
	Handle      string
	Password    string
	DID         string
	AccessToken string
}

// NewFromCredentials creates a client with whichever credentials are set
func NewFromCredentials(ctx context.Context, creds Credentials) (Client, error) {
	if creds.DID != "" && creds.AccessToken != "" {
		return NewFromAccessToken(creds.Host, creds.DID, creds.AccessToken)
	}
	if creds.Handle != "" || creds.Password != "" {
		return NewFromPasswordAuth(ctx, creds.Host, creds.Handle, creds.Password)
	}
	return nil, fmt.Errorf("no PDS credentials configured")
}
