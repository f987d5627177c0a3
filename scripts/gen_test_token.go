// ============================================================================
// 测试 Token 生成脚本
// ============================================================================
//
// 用途：生成调用拼团接口用的 JWT Token
// 运行：go run scripts/gen_test_token.go -u 10001 -c 1
//
// ============================================================================

package main

import (
	"flag"
	"fmt"
	"time"

	"groupbuy-platform/common/utils/jwt"
)

var (
	userID      = flag.Uint64("u", 10001, "用户ID")
	communityID = flag.Uint64("c", 1, "所属社区ID")
	// 与 app/groupbuy/api/etc/groupbuy-api.yaml 中的 Auth.AccessSecret 保持一致
	secret = flag.String("s", "groupbuy-access-secret-change-me", "签名密钥")
	expire = flag.Int64("e", 2*365*24*3600, "有效期（秒）")
)

func main() {
	flag.Parse()

	result, err := jwt.GenerateToken(*userID, *communityID, jwt.AuthConfig{
		Secret: *secret,
		Expire: *expire,
	})
	if err != nil {
		fmt.Printf("生成 Token 失败: %v\n", err)
		return
	}

	fmt.Println("============================================")
	fmt.Printf("用户ID: %d\n", *userID)
	fmt.Printf("社区ID: %d\n", *communityID)
	fmt.Printf("过期时间: %s\n", time.Unix(result.ExpireAt, 0).Format("2006-01-02 15:04:05"))
	fmt.Println("--------------------------------------------")
	fmt.Printf("Authorization: Bearer %s\n", result.Token)
	fmt.Println("============================================")
}
