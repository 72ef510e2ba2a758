package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// Seeder 初始化数据写入步骤，需可重复执行
type Seeder struct {
	Name string
	Run  func(ctx context.Context, db *gorm.DB) error
}

// Initializer 数据库初始化器：建表 + 初始化数据
type Initializer struct {
	db      *gorm.DB
	models  []interface{}
	seeders []Seeder
}

// InitOptions 初始化选项
type InitOptions struct {
	Models  []interface{}
	Seeders []Seeder
}

// NewInitializer 创建初始化器
func NewInitializer(db *gorm.DB, opts InitOptions) *Initializer {
	return &Initializer{db: db, models: opts.Models, seeders: opts.Seeders}
}

// Initialize 执行初始化，任一步失败即返回
func (i *Initializer) Initialize(ctx context.Context) error {
	log.Println("[DB] 开始数据库初始化...")
	start := time.Now()

	total := len(i.seeders) + 1
	log.Printf("[DB] 1/%d AutoMigrate %d 张表...", total, len(i.models))
	if err := Migrate(i.db.WithContext(ctx), i.models...); err != nil {
		return err
	}

	for idx, s := range i.seeders {
		log.Printf("[DB] %d/%d %s...", idx+2, total, s.Name)
		if err := s.Run(ctx, i.db.WithContext(ctx)); err != nil {
			return fmt.Errorf("%s失败: %w", s.Name, err)
		}
	}

	log.Printf("[DB] 初始化完成，耗时 %v", time.Since(start))
	return nil
}

// QuickInit 带超时的初始化
func QuickInit(db *gorm.DB, opts InitOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return NewInitializer(db, opts).Initialize(ctx)
}
