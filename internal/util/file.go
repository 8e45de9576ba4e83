package util

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateUniqueFilename 生成存储用的文件名。原始文件名不参与，
// 匿名平台不能把上传者本地的文件名带进公开的图片地址，只保留扩展名。
func GenerateUniqueFilename(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return uuid.NewString() + ext
}
