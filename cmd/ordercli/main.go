package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"wechat_order_v1/internal/app"
	"wechat_order_v1/internal/config"
	"wechat_order_v1/pkg/logger"
)

func main() {
	cliApp := &cli.App{
		Name:  "ordercli",
		Usage: "订单系统运维命令",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
				EnvVars: []string{"ORDER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "建表并写入默认角色、字段、类型与管理员",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					if err := c.Services.Seed.Init(ctx); err != nil {
						return err
					}
					fmt.Println("初始化完成")
					return nil
				}),
			},
			{
				Name:  "reset-admin",
				Usage: "按配置重置管理员账号与密码",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					if err := c.Services.Seed.Init(ctx); err != nil {
						return err
					}
					user, err := c.Services.Seed.ResetAdmin(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("管理员已重置: %s (%s)\n", user.Username, user.Email)
					return nil
				}),
			},
			{
				Name:  "collect",
				Usage: "从订单中汇总微信用户",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					res, err := c.Services.Reconcile.Collect(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("新增 %d, 更新 %d\n", res.Created, res.Updated)
					return nil
				}),
			},
			{
				Name:  "refresh",
				Usage: "重算微信用户统计并清理无订单用户",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					res, err := c.Services.Reconcile.Refresh(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("更新 %d, 清理 %d\n", res.Updated, res.Cleaned)
					return nil
				}),
			},
			{
				Name:  "backup",
				Usage: "备份 SQLite 数据库文件",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					res, err := c.Tasks.TriggerBackup(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("备份完成: %s (%d bytes)\n", res.Path, res.Size)
					return nil
				}),
			},
			{
				Name:  "fix-codes",
				Usage: "为缺少订单编号的订单补全编号",
				Action: withContainer(func(ctx context.Context, c *app.Container) error {
					n, err := c.Services.Seed.FixOrderCodes(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("已补全 %d 条订单编号\n", n)
					return nil
				}),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withContainer 加载配置并组装依赖后执行命令
func withContainer(fn func(ctx context.Context, c *app.Container) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		cfg, err := config.Load(cctx.String("config"))
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		// 备份命令不受定时开关影响
		cfg.Task.BackupEnabled = true

		zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Service+"-cli")
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		defer func() { _ = zlog.Sync() }()

		ctx := cctx.Context
		c, err := app.New(ctx, cfg, zlog)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := fn(ctx, c); err != nil {
			zlog.Error("命令执行失败", zap.String("command", cctx.Command.Name), zap.Error(err))
			return err
		}
		return nil
	}
}
