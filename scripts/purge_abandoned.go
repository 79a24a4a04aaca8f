// 手动清理滞留的面试会话脚本
//
// 候选人关闭浏览器后会话会停留在 in_progress 状态。该脚本把超过
// 指定小时数未更新的进行中会话标记为 abandoned。
//
// 用法: go run scripts/purge_abandoned.go [-hours 24]

package main

import (
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/pkg/database"
	"flag"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func main() {
	hours := flag.Int("hours", 24, "将超过该小时数未更新的会话标记为放弃")
	flag.Parse()

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	cutoff := time.Now().Add(-time.Duration(*hours) * time.Hour)
	result := db.Model(&model.InterviewSession{}).
		Where("status = ? AND updated_at < ?", model.SessionInProgress, cutoff).
		Update("status", model.SessionAbandoned)
	if result.Error != nil {
		log.Fatalf("更新会话失败: %v", result.Error)
	}

	log.Printf("已将 %d 个滞留会话标记为放弃", result.RowsAffected)
}
