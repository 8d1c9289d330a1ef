package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"dex-cpi-indexer-sol/internal/config"
	"dex-cpi-indexer-sol/internal/logic/grpc"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/svc"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

// statsService 定期打印解码统计
type statsService struct {
	sc     *svc.GrpcServiceContext
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *statsService) Start() {
	s.sc.Stats.Run(s.ctx, time.Duration(s.sc.Config.ParserConf.StatsIntervalSec)*time.Second)
}

func (s *statsService) Stop() {
	s.cancel()
	s.sc.Stats.Log()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	c := config.MustLoad(*configFile)
	logx.Must(logger.Init(c.LogConf.ToLogOption()))
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	logx.Must(err)
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()

	blockChan := make(chan *pb.SubscribeUpdateBlock, 200)

	var slotChecker *grpc.SlotChecker
	if c.RpcEndpoint != "" {
		slotChecker = grpc.NewSlotChecker(c.RpcEndpoint)
		sg.Add(slotChecker)
	}
	sg.Add(grpc.NewBlockProcessor(serviceContext, blockChan, slotChecker))

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext, blockChan)
	logx.Must(err)
	sg.Add(grpcService)

	statsCtx, statsCancel := context.WithCancel(context.Background())
	sg.Add(&statsService{sc: serviceContext, ctx: statsCtx, cancel: statsCancel})

	logx.Infof("Starting grpc stream service: endpoint=%s, decoders=%d", c.Grpc.Endpoint, serviceContext.Registry.Len())

	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
