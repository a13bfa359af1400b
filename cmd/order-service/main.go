// cmd/order-service/main.go
package main

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"

	"orderflow/internal/pkg/bootstrap"
	"orderflow/internal/pkg/constants"
	"orderflow/internal/pkg/httpclient"
	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/mq"
	"orderflow/internal/pkg/redis"
	"orderflow/internal/pkg/zookeeper"
	"orderflow/internal/service/order/application"
	"orderflow/internal/service/order/domain"
	"orderflow/internal/service/order/infrastructure"
	"orderflow/internal/service/order/infrastructure/adapter"
	"orderflow/internal/service/order/infrastructure/rule"
	"orderflow/internal/service/order/interfaces"
)

const (
	serviceName = constants.OrderService
	servicePort = 8081
)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.NewMySQL(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)
	var repo domain.OrderRepository = infrastructure.NewGormOrderRepository(db)
	repo = infrastructure.NewCachedOrderRepository(repo, redisClient)

	validator, err := rule.NewCELValidator(rule.DefaultRules())
	if err != nil {
		log.Fatalf("failed to compile validation rules: %v", err)
	}

	notifyWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, constants.NotificationTopic)
	eventsWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, constants.OrderEventsTopic)

	queue := application.NewWorkQueue(cfg.App.QueueCapacity)
	worker := application.NewWorker(queue)
	workerCtx, stopWorker := context.WithCancel(context.Background())

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(serviceName)
			httpClient := httpclient.NewClient(tracer, appCtx.Nacos)

			orchestrator := application.NewFulfillmentOrchestrator(
				repo,
				adapter.NewInventoryHTTPAdapter(httpClient),
				adapter.NewPaymentHTTPAdapter(httpClient),
				adapter.NewNotificationKafkaAdapter(notifyWriter),
				adapter.NewBroadcastKafkaAdapter(eventsWriter),
				cfg.App.FulfillmentTimeout,
				tracer,
			)
			limiter := application.NewConcurrencyLimiter(cfg.App.BatchParallelism)
			batch := application.NewBatchCoordinator(repo, validator, orchestrator, limiter, tracer)
			service := application.NewOrderService(repo, validator, orchestrator, batch, queue, cfg.App.StreamInterval, tracer)

			interfaces.NewOrderHandler(service).RegisterRoutes(appCtx.Mux)

			go startQueueWorker(workerCtx, worker, cfg.Infra.Zookeeper.Servers)
		},
		OnShutdown: func(ctx context.Context) {
			stopWorker()
			worker.Stop()
			_ = notifyWriter.Close()
			_ = eventsWriter.Close()
			_ = redisClient.Close()
		},
	})
}

// startQueueWorker 启动后台队列 worker。多实例部署时先通过 ZooKeeper
// 竞选 leader，只有 leader 消费队列，避免同一笔延迟订单被重复编排。
// 未配置 ZooKeeper（单实例部署）时直接启动。
func startQueueWorker(ctx context.Context, worker *application.Worker, zkServers []string) {
	if len(zkServers) == 0 {
		worker.Start(ctx)
		return
	}

	conn, err := zookeeper.Connect(zkServers)
	if err != nil {
		log.Printf("zookeeper unavailable, starting queue worker without election: %v", err)
		worker.Start(ctx)
		return
	}
	election, err := zookeeper.NewElection(conn, "order-worker")
	if err != nil {
		log.Printf("election setup failed, starting queue worker without election: %v", err)
		worker.Start(ctx)
		return
	}

	log.Println("campaigning for queue worker leadership")
	if err := election.Campaign(ctx); err != nil {
		log.Printf("leadership campaign aborted: %v", err)
		return
	}
	log.Println("elected queue worker leader, consuming work queue")
	worker.Start(ctx)

	<-ctx.Done()
	_ = election.Resign()
}
