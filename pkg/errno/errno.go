package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较，使 errors.Is(err, errno.ErrXxx) 对包装后的错误同样生效
func (e Errno) Is(target error) bool {
	var t Errno
	switch typed := target.(type) {
	case Errno:
		t = typed
	case *Errno:
		t = *typed
	default:
		return false
	}
	return e.Code == t.Code
}

// Decode tries to convert an error to Errno.
// 被 fmt.Errorf("%w") 包装过的错误保留原始错误码，消息使用完整的错误链文本
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var ptr *Errno
	if errors.As(err, &ptr) {
		return ptr.Code, err.Error()
	}
	var val Errno
	if errors.As(err, &val) {
		return val.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrQueue            = Errno{Code: 10005, Message: "Message queue error"}
)

// Validation Errors (301xx): 非法输入，在任何状态变更前拒绝
var (
	ErrZeroAmount       = Errno{Code: 30101, Message: "amount must be greater than zero"}
	ErrAmountTooLarge   = Errno{Code: 30102, Message: "amount exceeds 128 bits"}
	ErrGasLimitTooLow   = Errno{Code: 30103, Message: "gas limit below protocol minimum"}
	ErrInvalidFee       = Errno{Code: 30104, Message: "invalid fee parameters"}
	ErrInvalidChainID   = Errno{Code: 30105, Message: "chain id must be greater than zero"}
	ErrInvalidAddress   = Errno{Code: 30106, Message: "invalid address"}
	ErrEmptyField       = Errno{Code: 30107, Message: "required field is empty"}
	ErrFieldTooLong     = Errno{Code: 30108, Message: "field exceeds maximum length"}
	ErrInvalidOutput    = Errno{Code: 30109, Message: "invalid response payload"}
	ErrInvalidRequester = Errno{Code: 30110, Message: "invalid requester key"}
	ErrSerialization    = Errno{Code: 30111, Message: "serialization error"}
	ErrUnknownOperation = Errno{Code: 30112, Message: "unknown operation"}
)

// Bridge Errors
var (
	ErrInvalidRequestID  = Errno{Code: 30201, Message: "request id mismatch"}
	ErrRequestExists     = Errno{Code: 30301, Message: "request id already pending"}
	ErrRequestNotFound   = Errno{Code: 30302, Message: "no pending request for id"}
	ErrRequestClosed     = Errno{Code: 30303, Message: "request id already closed"}
	ErrInvalidSignature  = Errno{Code: 30401, Message: "invalid signature"}
	ErrUnauthorized      = Errno{Code: 30402, Message: "requester did not authorize the operation"}
	ErrOverflow          = Errno{Code: 30501, Message: "arithmetic overflow"}
	ErrUnderflow         = Errno{Code: 30502, Message: "arithmetic underflow"}
	ErrTransferFailed    = Errno{Code: 30601, Message: "transfer failed"}
	ErrInsufficientFunds = Errno{Code: 30701, Message: "insufficient balance"}
)

// Kind 错误分类，对应协议层的错误族
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindMismatch
	KindState
	KindSignature
	KindArithmetic
	KindTransferFailed
	KindInsufficientBalance
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMismatch:
		return "mismatch"
	case KindState:
		return "state"
	case KindSignature:
		return "signature"
	case KindArithmetic:
		return "arithmetic"
	case KindTransferFailed:
		return "transfer_failed"
	case KindInsufficientBalance:
		return "insufficient_balance"
	default:
		return "internal"
	}
}

// KindOf 根据错误码区间判断错误类别
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	code, _ := Decode(err)
	switch {
	case code >= 30100 && code < 30200:
		return KindValidation
	case code >= 30200 && code < 30300:
		return KindMismatch
	case code >= 30300 && code < 30400:
		return KindState
	case code >= 30400 && code < 30500:
		return KindSignature
	case code >= 30500 && code < 30600:
		return KindArithmetic
	case code >= 30600 && code < 30700:
		return KindTransferFailed
	case code >= 30700 && code < 30800:
		return KindInsufficientBalance
	default:
		return KindInternal
	}
}
