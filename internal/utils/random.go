package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strings"
	"unicode"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
)

const (
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits       = "0123456789"
	// the special characters accepted by the strong password rule
	specials = "@$!%*?&"
)

// GenerateRandomOTP returns a six digit one-time code.
func GenerateRandomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// GenerateRandomPassword returns a password that satisfies IsStrongPassword.
// Lengths below 8 are raised to 8.
func GenerateRandomPassword(length int) string {
	if length < 8 {
		length = 8
	}
	all := lowerLetters + upperLetters + digits + specials
	password := []byte{
		randomByte(lowerLetters),
		randomByte(upperLetters),
		randomByte(digits),
		randomByte(specials),
	}
	for len(password) < length {
		password = append(password, randomByte(all))
	}
	for i := len(password) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		password[i], password[j] = password[j], password[i]
	}
	return string(password)
}

func randomByte(set string) byte {
	return set[randomIndex(len(set))]
}

func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}

var commonGivenNames = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

// GenerateRandomStaffName returns a romanized (pinyin) first and last name.
// Sample accounts only accept ASCII letters in names.
func GenerateRandomStaffName() (string, string) {
	surname := commonSurnames[mrand.Intn(len(commonSurnames))]
	given := ""
	n := mrand.Intn(2) + 1
	for i := 0; i < n; i++ {
		given += commonGivenNames[mrand.Intn(len(commonGivenNames))]
	}
	return romanize(given), romanize(surname)
}

func romanize(hanzi string) string {
	syllables := pinyin.LazyConvert(hanzi, nil)
	name := strings.Join(syllables, "")
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// GenerateStaffEmail builds a lower-case address from a name and a short numeric suffix.
func GenerateStaffEmail(firstName, lastName, emailDomain string) string {
	local := strings.ToLower(firstName + "." + lastName)
	suffix := ""
	n := mrand.Intn(3) + 1
	for i := 0; i < n; i++ {
		suffix += string(digits[mrand.Intn(len(digits))])
	}
	return domain.NormalizeEmail(local + suffix + "@" + emailDomain)
}

// GenerateRandomRole picks any role except COO, which is reserved for administrators.
func GenerateRandomRole() domain.Role {
	roles := make([]domain.Role, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		if r != domain.RoleCOO {
			roles = append(roles, r)
		}
	}
	return roles[mrand.Intn(len(roles))]
}

// GenerateRandomPermissions flips the edit and delete flags at random on top
// of the defaults.
func GenerateRandomPermissions() domain.Permissions {
	p := domain.DefaultPermissions()
	p.EditSuggestions = mrand.Intn(2) == 0
	p.DeleteSuggestions = mrand.Intn(4) == 0
	p.ManageSuggestions = p.EditSuggestions
	return p
}
