package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/AlekSi/pointer"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"dex-cpi-indexer-sol/internal/logic/progress"
	"dex-cpi-indexer-sol/internal/svc"
)

type GrpcStreamManager struct {
	mu                sync.Mutex                    // 互斥锁，保护并发安全
	conn              *grpc.ClientConn              // gRPC 连接对象
	client            pb.GeyserClient               // gRPC 客户端
	stream            pb.Geyser_SubscribeClient     // gRPC 订阅流
	stopped           bool                          // 标记是否已经停止
	reconnectAttempts int                           // 已重连次数
	reconnectInterval time.Duration                 // 重连基础间隔
	xToken            string                        // 认证用的 x-token
	pingInterval      time.Duration                 // Stream 心跳包发送间隔
	sendTimeout       time.Duration                 // gRPC 发送超时
	blockRecvTimeout  time.Duration                 // 超过该时间未收到 block 触发重连
	maxLatencyWarn    time.Duration                 // 区块延迟告警阈值
	blockChan         chan *pb.SubscribeUpdateBlock // 区块数据通道
	connCtx           context.Context               // 当前连接的 context
	connCancel        context.CancelFunc            // 当前连接的 cancel 函数

	programs   []string
	commitment pb.CommitmentLevel
	fromSlot   uint64
	progress   *progress.ProgressManager
	logx.Logger
}

func NewGrpcStreamManager(sc *svc.GrpcServiceContext, blockChan chan *pb.SubscribeUpdateBlock) (*GrpcStreamManager, error) {
	grpcConf := sc.Config.Grpc
	target, secure := parseEndpoint(grpcConf.Endpoint)

	creds := insecure.NewCredentials()
	if secure {
		creds = credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(grpcConf.MaxDecodingMessageSize)),
		grpc.WithBlock(),
	}
	if grpcConf.InitialWindowSize > 0 {
		opts = append(opts, grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)))
	}
	if grpcConf.InitialConnWindowSize > 0 {
		opts = append(opts, grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)))
	}
	if grpcConf.MaxCallSendMsgSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize)))
	}
	if grpcConf.KeepalivePingIntervalSec > 0 {
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}))
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), sc.Config.Timeout())
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", target, err)
	}

	commitment, err := parseCommitment(grpcConf.Commitment)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &GrpcStreamManager{
		conn:              conn,
		client:            pb.NewGeyserClient(conn),
		reconnectInterval: secondsOr(grpcConf.ReconnectIntervalSec, 1),
		xToken:            grpcConf.XToken,
		pingInterval:      secondsOr(grpcConf.StreamPingIntervalSec, 10),
		sendTimeout:       sc.Config.Timeout(),
		blockRecvTimeout:  secondsOr(grpcConf.RecvTimeoutSec, 30),
		maxLatencyWarn:    time.Duration(grpcConf.MaxLatencyWarnMs) * time.Millisecond,
		blockChan:         blockChan,
		programs:          sc.Registry.Programs(),
		commitment:        commitment,
		fromSlot:          grpcConf.FromSlot,
		progress:          sc.ProgressManager,
		Logger:            logx.WithContext(context.Background()).WithFields(logx.Field("service", "grpc_stream")),
	}, nil
}

func secondsOr(sec, fallback int) time.Duration {
	if sec <= 0 {
		sec = fallback
	}
	return time.Duration(sec) * time.Second
}

// parseEndpoint 去掉 scheme；https 使用 TLS，其余明文
func parseEndpoint(endpoint string) (target string, secure bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		target, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		target = strings.TrimPrefix(endpoint, "http://")
	default:
		target = endpoint
	}
	target = strings.TrimSuffix(target, "/")
	if secure && !strings.Contains(target, ":") {
		target += ":443"
	}
	return target, secure
}

func parseCommitment(s string) (pb.CommitmentLevel, error) {
	switch strings.ToLower(s) {
	case "processed":
		return pb.CommitmentLevel_PROCESSED, nil
	case "", "confirmed":
		return pb.CommitmentLevel_CONFIRMED, nil
	case "finalized":
		return pb.CommitmentLevel_FINALIZED, nil
	}
	return 0, fmt.Errorf("unknown commitment %q", s)
}

func (m *GrpcStreamManager) Start() {
	m.mustConnect()
}

func (m *GrpcStreamManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.Errorf("关闭 gRPC 连接失败: %v", err)
		}
	}
}

// 内部循环直到连接成功
func (m *GrpcStreamManager) mustConnect() {
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		attempts := m.reconnectAttempts
		m.mu.Unlock()

		if attempts > 0 {
			if attempts > 3 {
				time.Sleep(m.reconnectInterval * 2)
			} else {
				time.Sleep(m.reconnectInterval)
			}
		}
		m.Infof("Connecting... attempt %d", attempts+1)
		err := m.connect()
		if err == nil {
			return
		}
		m.Errorf("Connect failed: %v, will retry...", err)
	}
}

func buildSubscribeRequest(programs []string, commitment pb.CommitmentLevel, fromSlot uint64) *pb.SubscribeRequest {
	blocks := map[string]*pb.SubscribeRequestFilterBlocks{
		"blocks": {
			AccountInclude:      programs,
			IncludeTransactions: pointer.ToBool(true),
			IncludeAccounts:     pointer.ToBool(false),
			IncludeEntries:      pointer.ToBool(false),
		},
	}
	req := &pb.SubscribeRequest{
		Blocks:     blocks,
		Commitment: &commitment,
	}
	if fromSlot > 0 {
		req.FromSlot = pointer.ToUint64(fromSlot)
	}
	return req
}

// resumeSlot 配置的 from_slot 优先，否则使用检查点的下一个 slot
func (m *GrpcStreamManager) resumeSlot(ctx context.Context) uint64 {
	if m.progress == nil {
		return m.fromSlot
	}
	slot, err := m.progress.ResumeSlot(ctx, m.fromSlot)
	if err != nil {
		m.Errorf("读取检查点失败，从最新 slot 开始: %v", err)
		return m.fromSlot
	}
	return slot
}

// connect 只尝试一次连接
func (m *GrpcStreamManager) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnectAttempts++
	if m.stopped {
		return errors.New("manager is stopped")
	}

	// 先关闭旧的 context，优雅退出旧 goroutine
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.connCtx, m.connCancel = context.WithCancel(context.Background())

	metaCtx := metadata.NewOutgoingContext(
		m.connCtx,
		metadata.New(map[string]string{"x-token": m.xToken}),
	)
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fromSlot := m.resumeSlot(m.connCtx)
	req := buildSubscribeRequest(m.programs, m.commitment, fromSlot)
	if err := sendWithTimeout(m.connCtx, stream.Send, req, m.sendTimeout); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.stream = stream
	m.reconnectAttempts = 0
	m.Infof("Connection established: programs=%d, commitment=%s, from_slot=%d", len(m.programs), m.commitment, fromSlot)

	go m.pingLoop(m.connCtx, stream)
	go m.blockRecvLoop(m.connCtx, stream)
	return nil
}

func (m *GrpcStreamManager) blockRecvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	last := time.Now()
	for {
		if ctx.Err() != nil {
			return
		}

		update, err := stream.Recv()
		now := time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				m.Errorf("Stream closed by server (EOF), will reconnect")
				m.reconnect()
				return
			}
			m.Errorf("Stream error: %v", err)
			if m.reconnectIfBlockTimeout(last) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if u, ok := update.GetUpdateOneof().(*pb.SubscribeUpdate_Block); ok {
			block := u.Block
			if block.BlockTime != nil && m.maxLatencyWarn > 0 {
				latency := now.Sub(time.Unix(block.BlockTime.Timestamp, 0))
				if latency > m.maxLatencyWarn {
					m.Infof("区块延迟过高: slot=%d, latency=%v", block.Slot, latency)
				}
			}
			select {
			case m.blockChan <- block:
			case <-ctx.Done():
				return
			}
			last = now
		}

		if m.reconnectIfBlockTimeout(last) {
			return
		}
	}
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// 心跳检测
func (m *GrpcStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingReq := &pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: 1}}
			if err := sendWithTimeout(ctx, stream.Send, pingReq, m.sendTimeout); err != nil {
				// 只记录日志，不触发重连
				m.Errorf("Ping failed: %v", err)
			}
		}
	}
}

func (m *GrpcStreamManager) reconnectIfBlockTimeout(last time.Time) bool {
	if time.Since(last) > m.blockRecvTimeout {
		m.Errorf("%v 未收到 block，触发重连", m.blockRecvTimeout)
		m.reconnect()
		return true
	}
	return false
}

func (m *GrpcStreamManager) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.reconnectAttempts++
	m.mu.Unlock()

	go m.mustConnect()
}
