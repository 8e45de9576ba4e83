package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGenerateUniqueFilename 生成的文件名保留扩展名但不泄露原始文件名
func TestGenerateUniqueFilename(t *testing.T) {
	name := GenerateUniqueFilename("我的照片.PNG")

	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "我的照片")
	assert.NotEqual(t, name, GenerateUniqueFilename("我的照片.PNG"))
}

// TestGenerateUniqueFilenameNoExt 没有扩展名的输入也能得到可用的文件名
func TestGenerateUniqueFilenameNoExt(t *testing.T) {
	name := GenerateUniqueFilename("photo")

	assert.NotEmpty(t, name)
	assert.NotContains(t, name, "photo")
	assert.NotContains(t, name, ".")
}
