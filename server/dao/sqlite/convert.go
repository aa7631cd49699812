package sqlite

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
)

// The convertToDB_* functions give the value stored in a column for a model
// field, and the convertFromDB_* functions set a model field from a stored
// value. Decode failures match dao.ErrDecodingFailure.

func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %s", dao.ErrDecodingFailure, err)
	}
	*target = u
	return nil
}

func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

func convertFromDB_Time(i int64, target *time.Time) error {
	*target = time.Unix(i, 0)
	return nil
}

func convertToDB_Role(r dao.Role) int64 {
	return int64(r)
}

func convertFromDB_Role(i int64, target *dao.Role) error {
	r := dao.Role(i)
	switch r {
	case dao.Guest, dao.Member, dao.Admin:
		*target = r
		return nil
	default:
		return fmt.Errorf("%w: not a role: %d", dao.ErrDecodingFailure, i)
	}
}

func convertToDB_Bool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func convertFromDB_Bool(i int64, target *bool) error {
	*target = i != 0
	return nil
}

func convertToDB_Rules(rules []string) string {
	return strings.Join(rules, "\n")
}

func convertFromDB_Rules(s string, target *[]string) error {
	if s == "" {
		*target = nil
		return nil
	}
	*target = strings.Split(s, "\n")
	return nil
}

func convertToDB_LexerDef(ld gfile.LexerDef) (string, error) {
	return ld.EncodeTOML()
}

func convertFromDB_LexerDef(s string, target *gfile.LexerDef) error {
	ld, err := gfile.DecodeLexerDef(s)
	if err != nil {
		return fmt.Errorf("%w: %s", dao.ErrDecodingFailure, err)
	}
	*target = ld
	return nil
}

func convertToDB_Grammar(g grammar.Grammar) (string, error) {
	data, err := g.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func convertFromDB_Grammar(s string, target *grammar.Grammar) error {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", dao.ErrDecodingFailure, err)
	}
	var g grammar.Grammar
	if err := g.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %s", dao.ErrDecodingFailure, err)
	}
	*target = g
	return nil
}
