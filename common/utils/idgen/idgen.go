/**
 * @projectName: GroupBuy
 * @package: idgen
 * @className: idgen
 * @description: 团编号与幂等来源ID生成工具
 * @version: 1.0
 */

package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== 说明 ====================
// 主键ID生成策略：
//   - 使用 MySQL 自增ID（GORM autoIncrement）
//
// 本文件提供：
//   - 团编号（对外展示、分享用）
//   - SourceID（幂等键），调用下游时携带，保证重试不会重复扣/退款

// ==================== 团编号 ====================

// teamNoPrefix 团编号前缀
const teamNoPrefix = "GB"

// GenTeamNo 生成团编号
// 格式: GB{yyyyMMddHHmmss}{8位随机串}
// 示例: GB20260301120000a1b2c3d4
func GenTeamNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%s%s", teamNoPrefix, now.Format("20060102150405"), suffix)
}

// ==================== 幂等来源ID ====================

// SourceType 来源类型常量
const (
	// SourceTypeJoin 参团下单
	SourceTypeJoin = "join"
	// SourceTypeRefund 拼团退款
	SourceTypeRefund = "refund"
)

// GenSourceID 生成幂等来源ID
// 格式: {sourceType}:{bizID}
func GenSourceID(sourceType string, bizID uint64) string {
	return fmt.Sprintf("%s:%d", sourceType, bizID)
}

// GenSourceIDWithSub 生成带子ID的幂等来源ID
// 格式: {sourceType}:{bizID}:{subID}
func GenSourceIDWithSub(sourceType string, bizID, subID uint64) string {
	return fmt.Sprintf("%s:%d:%d", sourceType, bizID, subID)
}

// GenJoinBizNo 参团下单幂等号
// 格式: join:{teamID}:{userID}
// 订单服务以此去重，本地提交失败后的重试不会产生第二笔订单
func GenJoinBizNo(teamID, userID uint64) string {
	return GenSourceIDWithSub(SourceTypeJoin, teamID, userID)
}

// GenRefundSourceID 退款幂等号
// 格式: refund:{orderID}
// 同一订单无论被补偿多少次，余额只会退回一次
func GenRefundSourceID(orderID uint64) string {
	return GenSourceID(SourceTypeRefund, orderID)
}
