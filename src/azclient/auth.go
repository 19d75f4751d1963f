package azclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CognitiveServicesScope is the token scope for Azure OpenAI.
const CognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// tokenRefreshMargin is how long before expiry a cached token is replaced.
const tokenRefreshMargin = 5 * time.Minute

// TokenSource authorizes outgoing requests.
type TokenSource interface {
	Authorize(ctx context.Context, req *http.Request) error
	// Kind names the mechanism for logs and the boot banner.
	Kind() string
}

// APIKeyAuth authorizes requests with a static resource key.
type APIKeyAuth struct {
	Key string
}

func (a APIKeyAuth) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("api-key", a.Key)
	return nil
}

func (a APIKeyAuth) Kind() string { return "api-key" }

// CredentialAuth authorizes requests with bearer tokens from an Azure
// credential, caching each token until shortly before it expires.
type CredentialAuth struct {
	cred   azcore.TokenCredential
	scopes []string

	mu    sync.Mutex
	token azcore.AccessToken
}

// NewCredentialAuth wraps an existing Azure credential.
func NewCredentialAuth(cred azcore.TokenCredential, scopes ...string) *CredentialAuth {
	if len(scopes) == 0 {
		scopes = []string{CognitiveServicesScope}
	}
	return &CredentialAuth{cred: cred, scopes: scopes}
}

// NewDefaultCredentialAuth uses the ambient credential chain (environment,
// workload identity, managed identity, Azure CLI, ...).
func NewDefaultCredentialAuth() (*CredentialAuth, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, &CredentialError{Err: err}
	}
	return NewCredentialAuth(cred), nil
}

func (a *CredentialAuth) Authorize(ctx context.Context, req *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token.Token == "" || time.Until(a.token.ExpiresOn) < tokenRefreshMargin {
		token, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: a.scopes})
		if err != nil {
			return &CredentialError{Err: err}
		}
		a.token = token
	}
	req.Header.Set("Authorization", "Bearer "+a.token.Token)
	return nil
}

func (a *CredentialAuth) Kind() string { return "azure-credential" }
