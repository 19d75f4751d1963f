package azclient

import (
	"log/slog"
	"net/http"
)

// Config holds configuration for the Azure OpenAI client
type Config struct {
	Endpoint   string       // Resource endpoint, e.g. https://myres.openai.azure.com
	Deployment string       // Chat model deployment name
	APIVersion string       // api-version query parameter
	APIKey     string       // Optional; ambient credential is used when empty
	Credential TokenSource  // Overrides the credential chosen from APIKey
	Logger     *slog.Logger // Logger for debugging
	HTTPClient *http.Client // Optional transport override (tests)
}
