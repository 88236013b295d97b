package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/internal/timeutil"
)

// BindLiteral renders a `?`-placeholder template into a single SQL string
// for backends that only accept literal text. Placeholder and argument
// counts must match exactly, string values get their quotes doubled, and
// nil becomes NULL. Templates are authored in this package, so a `?`
// never appears inside a string literal.
func BindLiteral(template string, args ...any) (string, error) {
	placeholders := strings.Count(template, "?")
	if placeholders != len(args) {
		return "", errors.Errorf("statement has %d placeholders but %d arguments", placeholders, len(args))
	}

	var b strings.Builder
	argIdx := 0
	for _, ch := range template {
		if ch != '?' {
			b.WriteRune(ch)
			continue
		}
		lit, err := quoteLiteral(args[argIdx])
		if err != nil {
			return "", err
		}
		b.WriteString(lit)
		argIdx++
	}
	return b.String(), nil
}

func quoteLiteral(arg any) (string, error) {
	switch v := arg.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return "'" + timeutil.Format(v) + "'", nil
	case *string:
		if v == nil {
			return "NULL", nil
		}
		return quoteLiteral(*v)
	case *float64:
		if v == nil {
			return "NULL", nil
		}
		return quoteLiteral(*v)
	default:
		return "", errors.Errorf("unsupported literal type %T", arg)
	}
}
