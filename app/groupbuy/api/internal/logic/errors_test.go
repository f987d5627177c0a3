package logic

import (
	"testing"

	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestToBizError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"team not found", errors.Wrap(model.ErrTeamNotFound, "lock"), errorx.CodeTeamNotFound},
		{"member not found", model.ErrMemberNotFound, errorx.CodeMemberNotFound},
		{"activity not found", model.ErrActivityNotFound, errorx.CodeActivityNotFound},
		{"lock wait timeout", &mysqlerr.MySQLError{Number: 1205}, errorx.CodeLockTimeout},
		{"deadlock", errors.WithStack(&mysqlerr.MySQLError{Number: 1213}), errorx.CodeLockTimeout},
		{"biz error kept", errorx.ErrTeamFull(), errorx.CodeTeamFull},
		{"other", errors.New("disk full"), errorx.CodeDBError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errorx.Is(ToBizError(tt.err), tt.code))
		})
	}
	assert.Nil(t, ToBizError(nil))
}
