package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksk584/anonymous-social-media/config"
	"github.com/ksk584/anonymous-social-media/internal/api/auth"
	"github.com/ksk584/anonymous-social-media/internal/api/feed"
	"github.com/ksk584/anonymous-social-media/internal/api/moderation"
	"github.com/ksk584/anonymous-social-media/internal/authclient"
	"github.com/ksk584/anonymous-social-media/internal/middleware"
	"github.com/ksk584/anonymous-social-media/internal/repository/postgres"
	"github.com/ksk584/anonymous-social-media/internal/service"
	"github.com/ksk584/anonymous-social-media/internal/storage"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 连接托管 Postgres
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.Connect(ctx, config.AppConfig.DatabaseURL)
	cancel()
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer pool.Close()
	util.Logger.Info("数据库连接成功")

	// 启动行插入通知监听
	listener := postgres.NewListener(config.AppConfig.DatabaseURL)
	listener.Start(context.Background())
	defer listener.Close()

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("report_reason", util.ValidateReportReason)
	}

	// 初始化图片存储后端
	imageStorage, err := newStorage()
	if err != nil {
		util.Logger.Fatal("初始化图片存储失败", zap.Error(err))
	}

	// 初始化存储库、服务和处理器
	postRepo := postgres.NewPostRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)

	authClient := authclient.New(config.AppConfig.AuthServiceURL, config.AppConfig.AuthAPIKey)
	sessionService := service.NewSessionService(authClient)
	emailService := service.NewEmailService()

	feedService := service.NewFeedService(postRepo, profileRepo, listener)
	commentService := service.NewCommentService(commentRepo, profileRepo, listener)
	moderationService := service.NewModerationService(reportRepo, postRepo, emailService)

	// 登录后打开信息流的实时订阅，注销后关闭
	unsubscribeAuth := sessionService.Subscribe(func(event service.AuthEvent) {
		if event.SignedIn {
			feedService.Start()
			return
		}
		feedService.Stop()
	})
	defer unsubscribeAuth()

	authHandler := auth.NewAuthHandler(sessionService)
	feedHandler := feed.NewFeedHandler(feedService, commentService, moderationService, listener, imageStorage)
	moderationHandler := moderation.NewModerationHandler(moderationService)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	r.Use(cors.New(corsConfig))

	// 配置静态文件服务
	r.Static("/uploads", config.AppConfig.LocalStoragePath)

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 认证相关路由
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", middleware.AuthMiddleware(), authHandler.Logout)

		// 信息流相关路由
		api.GET("/posts", middleware.AuthMiddleware(), feedHandler.ListPosts)
		api.POST("/posts", middleware.AuthMiddleware(), feedHandler.CreatePost)
		api.DELETE("/posts/:id", middleware.AuthMiddleware(), feedHandler.DeletePost)
		api.GET("/posts/stream", middleware.AuthMiddleware(), feedHandler.StreamPosts)

		api.GET("/posts/:id/comments", middleware.AuthMiddleware(), feedHandler.ListComments)
		api.POST("/posts/:id/comments", middleware.AuthMiddleware(), feedHandler.CreateComment)
		api.DELETE("/comments/:id", middleware.AuthMiddleware(), feedHandler.DeleteComment)

		api.POST("/posts/:id/reports", middleware.AuthMiddleware(), feedHandler.ReportPost)
		api.POST("/uploads", middleware.AuthMiddleware(), feedHandler.UploadImage)

		// 版主路由组
		moderatorRoutes := api.Group("/moderation")
		moderatorRoutes.Use(middleware.AuthMiddleware(), middleware.ModeratorMiddleware(profileRepo))
		{
			moderatorRoutes.GET("/reports", moderationHandler.GetReportedPosts)
			moderatorRoutes.POST("/posts/:id/resolve", moderationHandler.ResolvePost)
		}
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动，监听端口 :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// newStorage 根据配置选择图片存储后端
func newStorage() (storage.Storage, error) {
	switch config.AppConfig.StorageBackend {
	case "s3":
		return storage.NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
	case "gcs":
		return storage.NewGCSClient(
			config.AppConfig.GCSBucketName,
			config.AppConfig.GCSCredentialsFile)
	default:
		return storage.NewLocalStorage(config.AppConfig.LocalStoragePath)
	}
}
