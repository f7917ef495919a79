package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/crypto/bcrypt"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/repository"
	"github.com/dienstwunsch/backend/internal/seed"
	"github.com/dienstwunsch/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var days int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 为所有用户插入随机愿望, 3: 从 CSV 导入愿望)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量（操作 2 中为每个用户的数量）")
	flag.IntVar(&days, "days", 30, "随机愿望的日期范围，从今天开始计算的天数")
	flag.StringVar(&file, "file", "./internal/seed/data/requests.csv", "要导入的 CSV 文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("无法初始化数据库表", "error", err)
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(ctx, user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 || days <= 0 {
			slog.Error("请输入合法的愿望数量和天数")
			return
		}

		// 获取所有用户，管理员除外
		all, err := repo.GetAllUsers(ctx)
		if err != nil {
			slog.Error("无法获取所有用户", slog.String("error", err.Error()))
			return
		}
		users := make([]*domain.User, 0, len(all))
		for _, user := range all {
			if !user.IsAdmin {
				users = append(users, user)
			}
		}

		today := domain.Today(time.Now(), loc)
		cnt := seed.RandomShiftRequests(ctx, repo, users, today, days, n)
		slog.Info("插入愿望成功", slog.Int("count", cnt))
	case 3:
		f, err := os.Open(file)
		if err != nil {
			slog.Error("打开文件失败", "file", file, "error", err)
			return
		}
		defer f.Close()

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("无法生成密码哈希", "error", err)
			return
		}

		cnt, err := seed.ImportCSV(ctx, repo, f, string(passwordHash))
		if err != nil {
			slog.Error("导入失败", "error", err)
			return
		}
		slog.Info("导入数据完成", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
