package service

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

const (
	ContractNumberPrefix = "AEMCO"
	MaxNumberAttempts    = 10
)

var contractNumberPattern = regexp.MustCompile(`^AEMCO-\d{4}-\d{4}$`)

// NumberGenerator proposes a contract number for the given moment.
type NumberGenerator func(now time.Time) string

// RandomContractNumber returns AEMCO-<year>-<4 random digits>.
func RandomContractNumber(now time.Time) string {
	return fmt.Sprintf("%s-%d-%04d", ContractNumberPrefix, now.Year(), rand.IntN(10000))
}

func IsContractNumber(s string) bool {
	return contractNumberPattern.MatchString(s)
}
