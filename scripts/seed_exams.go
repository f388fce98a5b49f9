// 演示数据初始化脚本
//
// 向数据库写入一批演示用户和一张已发布的试卷，方便本地联调
// 提交与统计接口。重复执行按邮箱/标题跳过已存在的数据。
//
// 用法: go run scripts/seed_exams.go

package main

import (
	"errors"
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/model"
	"exam_center_backend/pkg/database"
	"exam_center_backend/pkg/logger"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	cfg.ForceMigrate = true

	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	seedUsers(db)
	seedExam(db)

	log.Println("演示数据初始化完成")
}

func seedUsers(db *gorm.DB) {
	users := []struct {
		name  string
		email string
		role  model.UserRole
	}{
		{"演示学生", "student@example.com", model.Student},
		{"演示教师", "teacher@example.com", model.Teacher},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123456"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("生成密码哈希失败: %v", err)
	}

	for _, u := range users {
		var existing model.User
		err := db.Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			log.Printf("用户 %s 已存在，跳过", u.email)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("查询用户失败: %v", err)
		}

		user := &model.User{Name: u.name, Email: u.email, Password: string(hash), Role: u.role}
		if err := db.Create(user).Error; err != nil {
			log.Fatalf("创建用户 %s 失败: %v", u.email, err)
		}
		log.Printf("已创建用户 %s (%s)", u.email, u.role)
	}
}

func seedExam(db *gorm.DB) {
	const title = "Go 语言基础测验（演示）"

	var existing model.Exam
	err := db.Where("title = ?", title).First(&existing).Error
	if err == nil {
		log.Printf("试卷 %q 已存在，跳过", title)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("查询试卷失败: %v", err)
	}

	exam := &model.Exam{
		Title:         title,
		CourseName:    "Go 程序设计",
		TotalScore:    100,
		PassScore:     60,
		QuestionCount: 10,
		IsPublished:   true,
	}
	if err := db.Create(exam).Error; err != nil {
		log.Fatalf("创建试卷失败: %v", err)
	}
	log.Printf("已创建试卷 %q (id=%d)", title, exam.ID)
}
