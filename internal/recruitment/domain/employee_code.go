package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultEmployeeCodeTemplate = "EMP-{YYYY}{MM}-{ID}"

// FormatEmployeeCode renders a code from the template using the joining time
// and the employee id. {ID} is the id in upper-case base36, so codes are unique
// without a counter.
func FormatEmployeeCode(template string, joinedAt time.Time, id snowflake.ID) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultEmployeeCodeTemplate
	}
	if id <= 0 {
		return "", fmt.Errorf("invalid employee id: %d", id)
	}
	if !strings.Contains(template, "{ID}") {
		return "", fmt.Errorf("employee code template must contain {ID}: %s", template)
	}

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", joinedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", joinedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", joinedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", joinedAt.Format("02"))
	out = strings.ReplaceAll(out, "{ID}", strings.ToUpper(strconv.FormatInt(id.Int64(), 36)))

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in employee code format: %s", out)
	}
	return out, nil
}
