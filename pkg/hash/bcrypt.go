// Package hash 封装用户密码的 bcrypt 哈希。
package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword 空密码不允许哈希
var ErrEmptyPassword = errors.New("hash: empty password")

// Cost 可在测试中调低以加快速度
var Cost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPasswordHash 比较明文与哈希；哈希格式非法时同样返回 false
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
