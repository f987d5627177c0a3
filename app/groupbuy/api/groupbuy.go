// ============================================================================
// GroupBuy API 拼团服务入口
// ============================================================================
//
// 功能说明：
//   - 开团 / 参团 / 退团 / 团长取消与移除成员
//   - 支付成功回调（HTTP 与 payment.confirmed 消息两条入口）
//   - 过期团扫描与补偿
//
// 启动命令：
//   go run groupbuy.go -f etc/groupbuy-api.yaml
//
// ============================================================================

package main

import (
	"context"
	"flag"
	"fmt"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/app/groupbuy/api/internal/consumer"
	"groupbuy-platform/app/groupbuy/api/internal/cron"
	"groupbuy-platform/app/groupbuy/api/internal/handler"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/common/response"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/groupbuy-api.yaml", "配置文件路径")

func main() {
	flag.Parse()

	// ==================== 1. 加载配置 ====================
	var c config.Config
	conf.MustLoad(*configFile, &c)

	response.SetupGlobalErrorHandler()

	// ==================== 2. 创建 REST 服务器 ====================
	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	// ==================== 3. 初始化服务上下文 ====================
	svcCtx := svc.NewServiceContext(c)
	defer svcCtx.Close()

	// ==================== 4. 注册路由 ====================
	handler.RegisterHandlers(server, svcCtx)

	// ==================== 5. 过期扫描 ====================
	expireCron := cron.NewExpireCron(svcCtx)
	expireCron.Start()
	defer expireCron.Stop()

	// ==================== 6. 支付成功事件消费 ====================
	if svcCtx.MsgClient != nil {
		if err := consumer.NewPaymentConfirmedConsumer(svcCtx).Subscribe(svcCtx.MsgClient); err != nil {
			logx.Errorf("订阅支付成功事件失败: %v", err)
		} else {
			threading.GoSafe(func() {
				if err := svcCtx.MsgClient.Run(context.Background()); err != nil {
					logx.Errorf("消息路由退出: %v", err)
				}
			})
		}
	}

	// ==================== 7. 启动服务 ====================
	fmt.Printf("Starting GroupBuy API server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
