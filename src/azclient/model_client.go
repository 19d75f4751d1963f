package azclient

import (
	"context"

	"github.com/elee1766/nl2sql/src/aisdk"
)

var _ aisdk.ModelClient = (*DeploymentClient)(nil)

// DeploymentClient is a ModelClient bound to one deployment.
type DeploymentClient struct {
	client *Client
	model  *aisdk.ModelInfo
}

// CreateChatCompletion creates a chat completion with the bound deployment
func (mc *DeploymentClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	return mc.client.createChatCompletion(ctx, req)
}

// CreateChatCompletionStream creates a streaming chat completion with the bound deployment
func (mc *DeploymentClient) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	return mc.client.createChatCompletionStream(ctx, req)
}

// GetModelInfo returns the deployment information
func (mc *DeploymentClient) GetModelInfo() *aisdk.ModelInfo {
	return mc.model
}
