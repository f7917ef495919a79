package utils

import (
	"math/rand"

	"golang.org/x/crypto/bcrypt"

	"github.com/dienstwunsch/backend/internal/domain"
)

var commonFirstNames = []string{
	"Anna", "Lena", "Marie", "Sophie", "Laura", "Julia", "Hannah", "Lea", "Katharina", "Sarah",
	"Lukas", "Jonas", "Leon", "Felix", "Paul", "Maximilian", "Tobias", "Jan", "Niklas", "Florian",
}

var commonSurnames = []string{
	"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner", "Becker", "Schulz", "Hoffmann",
	"Koch", "Richter", "Klein", "Wolf", "Schröder", "Neumann", "Schwarz", "Braun", "Zimmermann", "Krüger",
}

var sampleRemarks = []string{
	"Arzttermin am Vormittag",
	"gern mit Kollegin zusammen",
	"nur bis 20 Uhr möglich",
	"Kinderbetreuung",
	"Fortbildung am Vortag",
}

var digits = "0123456789"

func GenerateRandomGermanName() string {
	firstName := commonFirstNames[rand.Intn(len(commonFirstNames))]
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	return firstName + " " + surname
}

// GenerateRandomUser 生成普通用户，名字后面带几位数字以减少重名
func GenerateRandomUser(password string) (*domain.User, error) {
	name := GenerateRandomGermanName() + " "
	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		name += string(digits[rand.Intn(len(digits))])
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		PasswordHash: string(passwordHash),
	}

	return user, nil
}

// 用 Fisher-Yates 洗牌算法从 [from, from+days) 中选出 n 个互不相同的日期
func GenerateRandomDates(from domain.Date, days int, n int) []domain.Date {
	if days <= 0 || n <= 0 {
		return []domain.Date{}
	}

	offsets := make([]int, days)
	for i := range offsets {
		offsets[i] = i
	}

	for i := len(offsets) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		offsets[i], offsets[j] = offsets[j], offsets[i]
	}

	if n > days {
		n = days
	}

	dates := make([]domain.Date, n)
	for i := range dates {
		dates[i] = from.AddDays(offsets[i])
	}
	return dates
}

// 大部分随机愿望是待审核的，少部分已经被决定
var statusWeights = []domain.Status{
	domain.StatusPending, domain.StatusPending, domain.StatusPending,
	domain.StatusApproved, domain.StatusRejected,
}

func GenerateRandomShiftRequest(owner *domain.User, date domain.Date) *domain.ShiftRequest {
	req := &domain.ShiftRequest{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		Date:      date,
		ShiftType: domain.ShiftTypes[rand.Intn(len(domain.ShiftTypes))],
		Status:    statusWeights[rand.Intn(len(statusWeights))],
	}

	if rand.Intn(3) == 0 {
		remarks := sampleRemarks[rand.Intn(len(sampleRemarks))]
		req.Remarks = &remarks
	}

	return req
}
