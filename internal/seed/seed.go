// Package seed 向数据库中导入测试数据
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/repository"
	"github.com/dienstwunsch/backend/internal/utils"
)

// CSV 中必须存在的列，remarks 和 status 可以省略
var requiredHeaders = []string{"name", "date", "shiftType"}

// ImportCSV 按表头导入愿望。不存在的用户会以 passwordHash 新建，
// 不合法或重复的行会被记录并跳过，返回成功导入的行数
func ImportCSV(ctx context.Context, r *repository.Repository, in io.Reader, passwordHash string) (int, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	for _, key := range requiredHeaders {
		if !slices.Contains(headers, key) {
			return 0, fmt.Errorf("没有找到列 %q", key)
		}
	}

	users := map[string]*domain.User{}
	imported := 0
	line := 1

	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return imported, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		record := make(map[string]string, len(headers))
		for i, value := range row {
			if i < len(headers) {
				record[headers[i]] = strings.TrimSpace(value)
			}
		}

		user, err := findOrCreateUser(ctx, r, users, record["name"], passwordHash)
		if err != nil {
			slog.Error("获取用户失败", "line", line, "name", record["name"], "error", err)
			continue
		}

		req, err := parseRecord(record, user)
		if err != nil {
			slog.Error("数据不合法", "line", line, "error", err)
			continue
		}

		if err := r.CreateShiftRequest(ctx, req); err != nil {
			slog.Error("插入愿望失败", "line", line, "error", err)
			continue
		}

		imported++
	}

	return imported, nil
}

func findOrCreateUser(ctx context.Context, r *repository.Repository, users map[string]*domain.User, name, passwordHash string) (*domain.User, error) {
	if name == "" {
		return nil, errors.New("没有找到名字")
	}

	if user, ok := users[name]; ok {
		return user, nil
	}

	user, err := r.GetUserByName(ctx, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		// 表示该用户不在数据库中，需要新建并插入
		user = &domain.User{
			Name:         name,
			PasswordHash: passwordHash,
		}
		if err := r.CreateUser(ctx, user); err != nil {
			return nil, err
		}
	}

	users[name] = user
	return user, nil
}

// parseRecord 导入的是历史数据，日期不要求在今天之后
func parseRecord(record map[string]string, user *domain.User) (*domain.ShiftRequest, error) {
	date, err := domain.ParseDate(record["date"])
	if err != nil {
		return nil, fmt.Errorf("日期不合法: %q", record["date"])
	}

	req := &domain.ShiftRequest{
		OwnerID:   user.ID,
		OwnerName: user.Name,
		Date:      date,
		ShiftType: domain.ShiftType(record["shiftType"]),
		Status:    domain.StatusPending,
	}

	if !req.ShiftType.Valid() {
		return nil, fmt.Errorf("班次不合法: %q", record["shiftType"])
	}

	// CSV 中的空列表示没有备注
	if s := record["remarks"]; s != "" {
		remarks, fieldErrors := utils.ValidateRemarks(&s)
		if fieldErrors != nil {
			return nil, errors.New("备注过长")
		}
		req.Remarks = remarks
	}

	if s := record["status"]; s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		req.Status = status
	}

	return req, nil
}

// RandomShiftRequests 为每个用户在 [from, from+days) 中随机插入 perUser 条愿望，返回插入的数量
func RandomShiftRequests(ctx context.Context, r *repository.Repository, users []*domain.User, from domain.Date, days, perUser int) int {
	cnt := 0
	for _, user := range users {
		for _, date := range utils.GenerateRandomDates(from, days, perUser) {
			req := utils.GenerateRandomShiftRequest(user, date)
			if err := r.CreateShiftRequest(ctx, req); err != nil {
				slog.Error("无法插入愿望", "user", user.Name, "date", date.String(), "error", err)
				continue
			}
			cnt++
		}
	}
	return cnt
}
