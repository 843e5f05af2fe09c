package health

import (
	"context"
	"fmt"

	"github.com/opensearch-project/opensearch-go"
)

// OpenSearchChecker requests cluster health and treats red as down.
type OpenSearchChecker struct {
	client *opensearch.Client
}

func NewOpenSearchChecker(client *opensearch.Client) *OpenSearchChecker {
	return &OpenSearchChecker{client: client}
}

func (c *OpenSearchChecker) Name() string { return "opensearch" }

func (c *OpenSearchChecker) Check(ctx context.Context) Result {
	res, err := c.client.Cluster.Health(c.client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return down(err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return down(fmt.Errorf("cluster health: %s", res.Status()))
	}
	return up()
}
