package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	bucketName string
}

func NewGCSClient(bucketName, credentialsFile string) (*GCSClient, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// UploadFile 把帖子配图写入 GCS，返回公开访问地址。
// 对象在 Close 成功后才真正落盘，Close 的错误不能吞掉。
func (c *GCSClient) UploadFile(file *multipart.FileHeader, path string) (string, error) {
	ctx := context.Background()
	obj := c.client.Bucket(c.bucketName).Object(path)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	writer := obj.NewWriter(ctx)
	writer.ContentType = file.Header.Get("Content-Type")

	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return "", fmt.Errorf("写入图片到GCS失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("提交图片到GCS失败: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, path), nil
}
