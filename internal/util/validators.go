package util

import (
	"github.com/go-playground/validator/v10"
)

// 举报原因的固定枚举
var reportReasons = map[string]bool{
	"Spam":           true,
	"Offensive":      true,
	"Misinformation": true,
	"Inappropriate":  true,
	"Other":          true,
}

// ValidateReportReason 验证举报原因是否在枚举内
func ValidateReportReason(fl validator.FieldLevel) bool {
	reason, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return reportReasons[reason]
}
