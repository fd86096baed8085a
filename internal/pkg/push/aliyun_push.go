package push

import (
	"context"
	"encoding/json"
	"fmt"

	"socialgraph/internal/pkg/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
	"go.uber.org/zap"
)

// Notifier 推送通知，账号即用户 ID
type Notifier interface {
	NotifyAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, fmt.Errorf("push config is missing")
	}

	client, err := push.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{
		client: client,
		appKey: cfg.AppKey,
	}, nil
}

func (s *AliyunPushService) NotifyAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error {
	return s.sendPush("ACCOUNT", accountID, title, body, extParameters)
}

func (s *AliyunPushService) sendPush(target, targetValue, title, body string, extParameters map[string]string) error {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = target
	request.TargetValue = targetValue
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	// 扩展参数 (JSON 序列化)
	if len(extParameters) > 0 {
		extJSON, _ := json.Marshal(extParameters)
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	_, err := s.client.Push(request)
	return err
}

// NoopNotifier 未配置推送时使用，只记录调试日志
type NoopNotifier struct {
	log *zap.Logger
}

func (n NoopNotifier) NotifyAccount(ctx context.Context, accountID, title, body string, _ map[string]string) error {
	if n.log != nil {
		n.log.Debug("push skipped", zap.String("account", accountID), zap.String("title", title))
	}
	return nil
}

// NewNotifier 推送未开启或初始化失败时退化为 NoopNotifier，不阻塞启动
func NewNotifier(cfg config.PushConfig, log *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NoopNotifier{log: log}
	}
	service, err := NewAliyunPushService(cfg)
	if err != nil {
		log.Warn("push service disabled", zap.Error(err))
		return NoopNotifier{log: log}
	}
	return service
}
