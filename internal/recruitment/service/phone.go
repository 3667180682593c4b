package service

import (
	"strings"

	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/ttacon/libphonenumber"
)

// normalizePhone validates a phone for the region and returns it in E.164.
// An empty phone is allowed.
func normalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	region = strings.ToUpper(strings.TrimSpace(region))

	parsed, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", recruitmentdomain.ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(parsed) {
		return "", recruitmentdomain.ErrInvalidPhone
	}
	return libphonenumber.Format(parsed, libphonenumber.E164), nil
}
