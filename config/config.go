package config

import (
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	DatabaseURL        string // 托管 Postgres 的连接串
	AuthServiceURL     string // 托管认证服务的基础地址
	AuthAPIKey         string // 认证服务的 anon key
	JWTSecret          string // 认证服务签发令牌所用的共享密钥
	LogLevel           string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	ModeratorEmail     string // 举报告警邮件的收件人
	ReportThreshold    int    // 触发告警邮件的举报数阈值
	FrontendURL        string
	BackendURL         string
	S3Region           string
	S3Bucket           string
	GCSBucketName      string
	GCSCredentialsFile string
	LocalStoragePath   string
	StorageBackend     string // local / s3 / gcs
	Debug              bool   // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	// 从环境变量中读取配置
	AppConfig = Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AuthServiceURL:     getEnv("AUTH_SERVICE_URL", ""),
		AuthAPIKey:         getEnv("AUTH_API_KEY", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		ModeratorEmail:     getEnv("MODERATOR_EMAIL", ""),
		ReportThreshold:    getEnvAsInt("REPORT_ALERT_THRESHOLD", 3),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:8080"),
		S3Region:           getEnv("S3_REGION", "us-west-2"),
		S3Bucket:           getEnv("S3_BUCKET", "your-bucket-name"),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		StorageBackend:     getEnv("STORAGE_BACKEND", "local"),
		Debug:              getEnvAsBool("DEBUG", true),
	}

	validateConfig()

	// 如果是调试模式，打印更详细的路由信息
	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。认证服务：%s", AppConfig.AuthServiceURL)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func validateConfig() {
	if AppConfig.DatabaseURL == "" {
		log.Fatal("错误：数据库连接串未设置")
	}
	if AppConfig.AuthServiceURL == "" {
		log.Fatal("错误：认证服务地址未设置")
	}
	if AppConfig.JWTSecret == "" {
		log.Fatal("错误：JWT密钥未设置")
	}
}
