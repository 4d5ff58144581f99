package discovery

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const mcpPathSuffix = "/mcp"

// MCPServer is the serialized capability description of an MCP server.
type MCPServer struct {
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	Tools     []*MCPTool     `json:"tools"`
	Resources []*MCPResource `json:"resources"`
}

// MCPTool is one tool exposed by an MCP server.
type MCPTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// MCPResource is one resource exposed by an MCP server.
type MCPResource struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri"`
}

// MCPClient performs the capability-listing exchange with an MCP server
// over streamable HTTP.
type MCPClient struct {
	logger *zap.Logger
}

// MCPOption configures an MCPClient.
type MCPOption func(*MCPClient)

// WithMCPLogger sets the logger.
func WithMCPLogger(logger *zap.Logger) MCPOption {
	return func(c *MCPClient) {
		c.logger = logger
	}
}

// NewMCPClient creates a new MCPClient.
func NewMCPClient(opts ...MCPOption) *MCPClient {
	c := &MCPClient{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mcpURL appends the conventional /mcp path unless url already carries it.
func mcpURL(url string) string {
	if strings.HasSuffix(url, mcpPathSuffix) {
		return url
	}
	return strings.TrimSuffix(url, "/") + mcpPathSuffix
}

// Discover initializes an MCP session against the server at url and lists
// its tools and resources. Only the streamable HTTP transport is supported.
func (c *MCPClient) Discover(ctx context.Context, name, url string) (*MCPServer, error) {
	serverURL := mcpURL(url)
	c.logger.Debug("discovering MCP server", zap.String("url", serverURL))

	mcpClient, err := client.NewStreamableHttpClient(serverURL)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"creating MCP client for %s", serverURL)
	}
	defer func() {
		_ = mcpClient.Close()
	}()

	if _, err := mcpClient.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"initializing MCP session with %s", serverURL)
	}

	toolsList, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"listing tools of %s", serverURL)
	}

	resourcesList, err := mcpClient.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"listing resources of %s", serverURL)
	}

	tools := make([]*MCPTool, 0, len(toolsList.Tools))
	for i := range toolsList.Tools {
		tool := toolsList.Tools[i]

		parameters, err := schemaToMap(tool.InputSchema)
		if err != nil {
			return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
				"parsing input schema of tool %q", tool.Name)
		}

		tools = append(tools, &MCPTool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		})
	}

	resources := make([]*MCPResource, 0, len(resourcesList.Resources))
	for i := range resourcesList.Resources {
		resource := resourcesList.Resources[i]
		resources = append(resources, &MCPResource{
			Name:        resource.Name,
			Description: resource.Description,
			URI:         resource.URI,
		})
	}

	return &MCPServer{
		Name:      name,
		URL:       serverURL,
		Tools:     tools,
		Resources: resources,
	}, nil
}

// schemaToMap round-trips a tool input schema through JSON into a plain map
// so the claim document stays framework-independent.
func schemaToMap(schema any) (map[string]any, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var parameters map[string]any
	if err := json.Unmarshal(raw, &parameters); err != nil {
		return nil, err
	}

	return parameters, nil
}
