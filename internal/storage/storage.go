package storage

import "mime/multipart"

// Storage 图片上传后端。上传成功返回可直接用作帖子 image_url 的地址。
type Storage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
}

// 帖子配图只接受这几种类型，其它一律在上传前拒绝
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType 判断上传文件声明的类型是否为允许的图片类型
func IsAllowedImageType(contentType string) bool {
	return allowedImageTypes[contentType]
}
