package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "import_client"

// Client identifies who started an import, for the import history.
type Client struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches the requesting client to ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client attached by ContextWithClient, or
// the zero Client.
func ClientFromContext(ctx context.Context) Client {
	if c, ok := ctx.Value(ctxKeyClient).(Client); ok {
		return c
	}
	return Client{}
}
