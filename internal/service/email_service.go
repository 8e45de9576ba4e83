package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ksk584/anonymous-social-media/config"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// EmailService 负责发送版主告警邮件
type EmailService struct {
	smtpHost       string
	smtpPort       int
	username       string
	password       string
	moderatorEmail string
}

// NewEmailService 创建一个新的 EmailService 实例
func NewEmailService() *EmailService {
	return &EmailService{
		smtpHost:       config.AppConfig.SMTPHost,
		smtpPort:       config.AppConfig.SMTPPort,
		username:       config.AppConfig.SMTPUsername,
		password:       config.AppConfig.SMTPPassword,
		moderatorEmail: config.AppConfig.ModeratorEmail,
	}
}

// SendReportAlert 某个帖子的举报数达到阈值时通知版主。
// 邮件异步发送，失败只记日志，不影响举报流程。
func (s *EmailService) SendReportAlert(post *model.Post, reportCount int) {
	if s.moderatorEmail == "" {
		return
	}

	subject := fmt.Sprintf("帖子被举报 %d 次，待处理", reportCount)
	body := fmt.Sprintf(
		"帖子 %s 已累计 %d 条举报。<br><br>内容：<br>%s<br><br>请前往版主后台处理：%s/moderator",
		post.ID, reportCount, post.Content, config.AppConfig.FrontendURL)

	s.sendEmailAsync(s.moderatorEmail, subject, body)
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	go func() {
		if err := s.sendEmail(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
		}
	}()
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.TLSConfig = &tls.Config{ServerName: s.smtpHost}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}
