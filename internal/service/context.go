package service

import "context"

// Identity 当前请求的操作人,由身份中间件写入
type Identity struct {
	UserID   string
	UserName string
	OfficeID string
}

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "request_id"
	ipKey        contextKey = "ip"
	userAgentKey contextKey = "user_agent"
)

// WithIdentity 把操作人写入 context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext 读取操作人
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithRequestMeta 写入请求信息,供审计日志使用
func WithRequestMeta(ctx context.Context, requestID, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	ctx = context.WithValue(ctx, ipKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID 从 context 获取请求 ID
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetClientIP 从 context 获取客户端 IP
func GetClientIP(ctx context.Context) string {
	return stringValue(ctx, ipKey)
}

// GetUserAgent 从 context 获取 User Agent
func GetUserAgent(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

// requireIdentity 没有操作人或公证处时拒绝
func requireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == "" || id.OfficeID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}
