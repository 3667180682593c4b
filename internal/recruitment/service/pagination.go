package service

import (
	"time"

	"github.com/bwmarrin/snowflake"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
)

func encodePageToken(createdAt time.Time, id snowflake.ID) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        id.String(),
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}

func decodePageToken(token string) (time.Time, snowflake.ID, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return time.Time{}, 0, recruitmentdomain.ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return time.Time{}, 0, recruitmentdomain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return time.Time{}, 0, recruitmentdomain.ErrInvalidPageToken
	}
	return createdAt, id, nil
}
