package database

import (
	"context"
	"fmt"
	"time"

	"careerpath_go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

var ES *elasticsearch.Client

// InitElasticsearch 创建客户端并检查集群可达。Elasticsearch 是可选依赖，
// 这里返回错误而不是退出进程，由调用方决定是否降级。
func InitElasticsearch(addresses []string, username, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.String())
	}

	ES = client
	log.Infof("Elasticsearch connected: %v", addresses)
	return client, nil
}
