package validator

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/requestid"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Init 在 gin 的校验引擎上注册自定义规则, 可重复调用
func Init() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New()
		}
		register(v)
		validate = v
	})
}

// Engine 返回已注册自定义规则的校验器
func Engine() *validator.Validate {
	Init()
	return validate
}

func register(v *validator.Validate) {
	_ = v.RegisterValidation("hexaddr", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})
	_ = v.RegisterValidation("pubkey", func(fl validator.FieldLevel) bool {
		_, err := authority.ParsePublicKey(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("requestid", func(fl validator.FieldLevel) bool {
		_, err := requestid.ParseID(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("u128", func(fl validator.FieldLevel) bool {
		n, ok := new(big.Int).SetString(fl.Field().String(), 10)
		return ok && n.Sign() >= 0 && n.BitLen() <= 128
	})
}

// GetErrorMsg 把校验错误转换为可读信息
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request parameters"
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		case "hexaddr":
			msgs = append(msgs, fmt.Sprintf("%s must be a 0x-prefixed 20-byte address", field))
		case "pubkey":
			msgs = append(msgs, fmt.Sprintf("%s must be a base58 32-byte public key", field))
		case "requestid":
			msgs = append(msgs, fmt.Sprintf("%s must be a 0x-prefixed 32-byte hex id", field))
		case "u128":
			msgs = append(msgs, fmt.Sprintf("%s must be a decimal integer below 2^128", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
