package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/auth"
	"github.com/mautops/notary-gin/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// span 属性
const (
	attrOfficeID   = attribute.Key("notary.office_id")
	attrUserID     = attribute.Key("notary.user_id")
	attrResourceID = attribute.Key("notary.resource_id")
)

var tracerProvider *tracesdk.TracerProvider

// InitTracing 初始化 Jaeger 追踪,资源带上服务名和运行环境
func InitTracing(cfg config.TracingConfig, env string) error {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return err
	}

	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(tracingServiceName(cfg))}
	if env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(env))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return err
	}

	tracerProvider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func tracingServiceName(cfg config.TracingConfig) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return ServiceName
}

// TracingMiddleware 为每个请求创建 span
func TracingMiddleware(cfg config.TracingConfig) gin.HandlerFunc {
	return otelgin.Middleware(tracingServiceName(cfg))
}

// SpanIdentityMiddleware 把公证处、操作人和路径中的资源 ID 写入当前 span
// 放在身份中间件之后
func SpanIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(
				attrOfficeID.String(c.GetString(auth.ContextOfficeID)),
				attrUserID.String(c.GetString(auth.ContextUserID)),
			)
			if id := c.Param("id"); id != "" {
				span.SetAttributes(attrResourceID.String(id))
			}
		}
		c.Next()
	}
}

// ShutdownTracing 关闭追踪,刷新未发送的 span
func ShutdownTracing(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}
	return nil
}
