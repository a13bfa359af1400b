// internal/pkg/httpclient/client.go

package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/pkg/nacos"
)

// Client 是一个可追踪的、可注入的HTTP客户端。
// 下游地址通过 Nacos 服务发现解析，不在代码里写死。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	Nacos      *nacos.Client
}

// NewClient 创建一个新的客户端实例
func NewClient(tracer trace.Tracer, nacosClient *nacos.Client) *Client {
	// 这里创建 http.Client 时不设置 Timeout 字段，
	// 让其完全受控于每次请求传入的 context
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
		Nacos:      nacosClient,
	}
}

// CallService 通过服务名调用下游接口，返回 HTTP 状态码。
// 业务层根据状态码区分"服务说不行"（如库存不足）和"服务坏了"。
func (c *Client) CallService(ctx context.Context, serviceName, path string, params url.Values) (int, error) {
	ip, port, err := c.Nacos.DiscoverServiceInstance(serviceName)
	if err != nil {
		return 0, err
	}

	spanName := fmt.Sprintf("call-%s", serviceName)
	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	downstreamURL := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("%s:%d", ip, port),
		Path:     path,
		RawQuery: params.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, "POST", downstreamURL.String(), nil)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(
		attribute.String("http.url", downstreamURL.String()),
		attribute.String("http.method", "POST"),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		err := fmt.Errorf("service %s returned status %s", serviceName, resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}
