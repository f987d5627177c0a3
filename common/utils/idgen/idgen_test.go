package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenTeamNo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	a := GenTeamNo(now)
	b := GenTeamNo(now)

	assert.Len(t, a, 2+14+8)
	assert.Equal(t, "GB20260301120000", a[:16])
	assert.NotEqual(t, a, b)
}

func TestSourceIDs(t *testing.T) {
	assert.Equal(t, "join:3:9", GenJoinBizNo(3, 9))
	assert.Equal(t, "refund:1001", GenRefundSourceID(1001))
}
