package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams      = orz.NewError(10400, "参数无效")
	ErrInvalidToken       = orz.NewError(10403, "令牌无效")
	ErrPermissionDenied   = orz.NewError(10401, "您没有权限查看/修改/删除此数据")
	ErrNotFound           = orz.NewError(10404, "数据不存在")
	ErrAccountAlreadyUsed = orz.NewError(10000, "账户已被使用")
	ErrIncorrectPassword  = orz.NewError(10001, "账户或密码错误")
	ErrUserDisabled       = orz.NewError(10002, "用户已被禁用")
	ErrIncorrectOldPass   = orz.NewError(10003, "原密码错误")
	ErrNoActiveAccount    = orz.NewError(10004, "尚未连接交易账户")

	ErrBrokerRejected    = orz.NewError(10100, "交易服务器拒绝了请求")
	ErrBrokerUnavailable = orz.NewError(10101, "交易数据服务不可用")
	ErrInvalidDate       = orz.NewError(10102, "日期格式应为 YYYY-MM-DD")
)
